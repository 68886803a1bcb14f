package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/djedy/eventledger/internal/bot/handlers"
	"github.com/djedy/eventledger/internal/report"
	"github.com/joho/godotenv"
)

var client = &http.Client{Timeout: 15 * time.Second}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found")
	}

	botAPIURL := os.Getenv("BOT_API_URL")
	if botAPIURL == "" {
		botAPIURL = "http://localhost:8080"
	}

	port := 3000
	if envPort := os.Getenv("ADMIN_PORT"); envPort != "" {
		p, err := strconv.Atoi(envPort)
		if err != nil {
			log.Fatalf("invalid ADMIN_PORT %q", envPort)
		}
		port = p
	}

	http.Handle("/", dashboardHandler(botAPIURL))
	http.Handle("/api/status", statusProxy(botAPIURL))

	log.Printf("🚀 Admin panel starting on http://localhost:%d", port)
	log.Fatal(http.ListenAndServe(":"+strconv.Itoa(port), nil))
}

func dashboardHandler(botAPIURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := fetchStatus(botAPIURL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := dashboard.Execute(w, status); err != nil {
			log.Printf("❌ Render failed: %v", err)
		}
	})
}

func statusProxy(botAPIURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := fetchStatus(botAPIURL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})
}

func fetchStatus(botAPIURL string) (*handlers.StatusResponse, error) {
	resp, err := client.Get(botAPIURL + "/api/status")
	if err != nil {
		log.Printf("❌ Connection failed: %v", err)
		return nil, fmt.Errorf("failed to fetch status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bot status API returned %d", resp.StatusCode)
	}

	var status handlers.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %v", err)
	}
	return &status, nil
}

var dashboard = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"money": report.Money,
	"date":  func(t time.Time) string { return t.Format("02-01-2006 15:04") },
}).Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>DJ EDY · Contabilidad</title>
    <style>
        body { font-family: 'Segoe UI', system-ui, sans-serif; background: #f8fafc; color: #1f2937; margin: 0; }
        .container { max-width: 1100px; margin: 0 auto; padding: 24px; }
        h1 { color: #4f46e5; margin-bottom: 4px; }
        .muted { color: #6b7280; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 16px; margin: 24px 0; }
        .card { background: #fff; border-radius: 12px; padding: 20px; box-shadow: 0 4px 12px rgba(0,0,0,.08); }
        .card h3 { margin: 0 0 8px; font-size: .85em; text-transform: uppercase; color: #6b7280; }
        .number { font-size: 1.8em; font-weight: 700; }
        table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 12px; overflow: hidden; }
        th, td { padding: 10px 14px; text-align: left; border-bottom: 1px solid #e5e7eb; }
        th { background: #6366f1; color: #fff; }
    </style>
</head>
<body>
<div class="container">
    <h1>🎧 DJ EDY · Contabilidad</h1>
    <p class="muted">Actualizado {{date .GeneratedAt}}</p>

    <div class="grid">
        {{range .Balances}}
        <div class="card">
            <h3>{{.Account}}</h3>
            <div class="number">{{money .Current}}</div>
            <div class="muted">Pendiente {{money .Pending}}</div>
        </div>
        {{end}}
        <div class="card">
            <h3>Total general</h3>
            <div class="number">{{money .Total}}</div>
            <div class="muted">Retenido {{money .Held}}</div>
        </div>
    </div>

    <h2>Eventos en proceso</h2>
    {{if .ActiveEvents}}
    <table>
        <tr><th>ID</th><th>Evento</th><th>Cliente</th><th>Fecha</th><th>Presupuesto</th><th>Pagado</th><th>Pendiente</th><th>Gastos</th></tr>
        {{range .ActiveEvents}}
        <tr>
            <td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Client}}</td><td>{{.EventDate}}</td>
            <td>{{money .Budget}}</td><td>{{money .PaidTotal}}</td><td>{{money .Pending}}</td><td>{{money .Expenses}}</td>
        </tr>
        {{end}}
    </table>
    {{else}}
    <p class="muted">No hay eventos en proceso.</p>
    {{end}}
</div>
</body>
</html>`
