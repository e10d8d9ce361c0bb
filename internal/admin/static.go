package admin

import "net/http"

func serveCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	_, _ = w.Write([]byte(`body{font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;margin:0;background:#0b0c0f;color:#e6e6e6}
a{color:#91c9ff;text-decoration:none} a:hover{text-decoration:underline}
header{padding:12px 20px;border-bottom:1px solid #1b1d22;background:#111318}
.container{max-width:1400px;margin:0 auto;padding:20px}
table{width:100%;border-collapse:collapse;border:1px solid #2a2d34}
th,td{padding:6px;border-bottom:1px solid #2a2d34} th{text-align:left;background:#151720}
tr.alive td:first-child{border-left:4px solid #16a34a}
tr.dead td:first-child{border-left:4px solid #b91c1c}
tr.degraded td:first-child{border-left:4px solid #ca8a04}
tr.saved{background:#12351f}
.btn{display:inline-block;padding:4px 10px;border:1px solid #2a2d34;background:#1a1d26;color:#e6e6e6;border-radius:6px}
.btn-primary{background:#2563eb;border-color:#2563eb} .btn-danger{background:#b91c1c;border-color:#b91c1c}
input,select{padding:4px;background:#0f1116;color:#e6e6e6;border:1px solid #2a2d34;border-radius:6px}
.banner{padding:10px;border-radius:8px;margin:10px 0}
.banner.error{background:#3b1111;border:1px solid #b91c1c} .banner.ok{background:#12351f;border:1px solid #16a34a}
.small{opacity:.7} .mono{font-family:ui-monospace,Menlo,Consolas,monospace}`))
}
