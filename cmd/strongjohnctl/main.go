package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	User      string
	Pass      string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.User, c.Pass)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("STRONGJOHN_URL", "http://localhost:8080")
		user    = envOr("STRONGJOHN_ADMIN_USER", "")
		pass    = envOr("STRONGJOHN_ADMIN_PASS", "")
		out     = envOr("STRONGJOHN_OUT", "text")
	)

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "strongjohnctl",
		Short: "CLI de operación (vía /v1/admin)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL, cl.User, cl.Pass, cl.OutFormat = baseURL, user, pass, out
			if user == "" {
				return fmt.Errorf("faltan credenciales admin (flags --admin-user/--admin-pass o env STRONGJOHN_ADMIN_USER/_PASS)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env STRONGJOHN_URL)")
	root.PersistentFlags().StringVar(&user, "admin-user", user, "usuario basic auth admin (env STRONGJOHN_ADMIN_USER)")
	root.PersistentFlags().StringVar(&pass, "admin-pass", pass, "password basic auth admin (env STRONGJOHN_ADMIN_PASS)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Administración de cuentas",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar usuarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/admin/users", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status >= 400 {
				return fmt.Errorf("status %d", status)
			}
			return nil
		},
	}

	var email, password string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
			status, body, err := cl.do("POST", "/v1/admin/users", payload)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status >= 400 {
				return fmt.Errorf("status %d", status)
			}
			return nil
		},
	}
	createCmd.Flags().StringVar(&email, "email", "", "email del usuario")
	createCmd.Flags().StringVar(&password, "password", "", "password inicial")

	credentialsCmd := &cobra.Command{
		Use:   "credentials <user-id>",
		Short: "Listar llaves WebAuthn de un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/admin/users/"+args[0]+"/credentials", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status >= 400 {
				return fmt.Errorf("status %d", status)
			}
			return nil
		},
	}

	usersCmd.AddCommand(listCmd, createCmd, credentialsCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Chequear readiness del servicio",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/readyz", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status >= 400 {
				return fmt.Errorf("status %d", status)
			}
			return nil
		},
	}
	// health no necesita credenciales
	healthCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cl.BaseURL, cl.OutFormat = baseURL, out
		return nil
	}

	root.AddCommand(usersCmd, healthCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
