package ui

import "net/http"

// appCSS is the dashboard stylesheet, served from memory so the binary
// stays self-contained.
const appCSS = `:root {
  --bg: #0d1117;
  --panel: #161b22;
  --border: #30363d;
  --fg: #e6edf3;
  --muted: #8b949e;
  --accent: #58a6ff;
}
@media (prefers-color-scheme: light) {
  :root {
    --bg: #ffffff;
    --panel: #f6f8fa;
    --border: #d0d7de;
    --fg: #1f2328;
    --muted: #656d76;
    --accent: #0969da;
  }
}
* { box-sizing: border-box; }
body {
  margin: 0;
  background: var(--bg);
  color: var(--fg);
  font: 14px/1.5 -apple-system, "Segoe UI", Helvetica, Arial, sans-serif;
}
a { color: var(--accent); text-decoration: none; }
a:hover { text-decoration: underline; }
code { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12px; }

.app-shell { display: flex; min-height: 100vh; }
.app-sidebar {
  width: 220px;
  flex-shrink: 0;
  padding: 16px;
  border-right: 1px solid var(--border);
}
.brand { margin-bottom: 24px; }
.brand strong { font-size: 16px; }
.app-nav { display: flex; flex-direction: column; gap: 4px; }
.app-nav-link {
  display: block;
  padding: 6px 10px;
  border-radius: 6px;
  color: var(--fg);
}
.app-nav-link:hover { background: var(--panel); text-decoration: none; }
.app-nav-link.active { background: var(--panel); font-weight: 600; }

.app-main { flex: 1; padding: 16px 24px; min-width: 0; }
.topbar { margin-bottom: 16px; }
.page-title { font-size: 20px; margin: 0; }
.layout { max-width: 640px; margin: 48px auto; padding: 0 16px; }

.card {
  background: var(--panel);
  border: 1px solid var(--border);
  border-radius: 6px;
  padding: 16px;
  margin-bottom: 16px;
}
.card h2 { font-size: 14px; margin: 0 0 8px; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; }
.grid .card { margin-bottom: 0; }
.stat-value { font-size: 28px; font-weight: 600; margin: 0 0 4px; }
.muted { color: var(--muted); }
.mb-0 { margin-bottom: 0; }
.blankslate { text-align: center; padding: 32px; }

.toolbar .form-control {
  width: 100%;
  max-width: 420px;
  padding: 6px 10px;
  border: 1px solid var(--border);
  border-radius: 6px;
  background: var(--bg);
  color: var(--fg);
}
.sr-only {
  position: absolute;
  width: 1px; height: 1px;
  clip: rect(0 0 0 0);
  overflow: hidden;
}

.table-wrap { overflow-x: auto; padding: 0; }
table { border-collapse: collapse; width: 100%; }
th, td {
  text-align: left;
  padding: 8px 12px;
  border-bottom: 1px solid var(--border);
  vertical-align: top;
}
th { color: var(--muted); font-weight: 600; white-space: nowrap; }
tbody tr:last-child td { border-bottom: none; }

.label {
  display: inline-block;
  padding: 1px 8px;
  border: 1px solid var(--border);
  border-radius: 999px;
  font-size: 12px;
  white-space: nowrap;
}
.label-success { color: #3fb950; border-color: #3fb950; }
.label-danger { color: #f85149; border-color: #f85149; }
.label-accent { color: var(--accent); border-color: var(--accent); }
.label-attention { color: #d29922; border-color: #d29922; }
.label-severe { color: #db6d28; border-color: #db6d28; }
`

// Stylesheet serves the embedded dashboard CSS.
func (h *Handler) Stylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(appCSS))
}
