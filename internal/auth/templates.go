package auth

// baseCSSVars contains the CSS custom properties shared by both templates.
const baseCSSVars = `
        :root {
            --bg-deep: #06060a;
            --bg-card: #0d0d14;
            --border: #1a1a2e;
            --text: #e4e4eb;
            --text-muted: #6b6b7a;
            --accent: #0af;
            --success: #22c55e;
            --error: #ef4444;
        }
`

const pageCSS = baseCSSVars + `
        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: system-ui, -apple-system, sans-serif;
            background: var(--bg-deep);
            color: var(--text);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            padding: 2rem;
        }

        .card {
            width: 100%;
            max-width: 480px;
            background: var(--bg-card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 2.5rem 2rem;
            text-align: center;
            animation: fadeUp 0.4s ease-out;
        }

        h1 { font-size: 1.5rem; margin-bottom: 0.75rem; }
        p { color: var(--text-muted); line-height: 1.6; }
        code { color: var(--accent); }
        .ok h1 { color: var(--success); }
        .failed h1 { color: var(--error); }

        @keyframes fadeUp {
            from { opacity: 0; transform: translateY(10px); }
            to { opacity: 1; transform: translateY(0); }
        }
`

const successTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Signed in - Bynder CLI</title>
    <style>` + pageCSS + `</style>
</head>
<body>
    <div class="card ok">
        <h1>Authorization received</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

const failureTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Sign-in failed - Bynder CLI</title>
    <style>` + pageCSS + `</style>
</head>
<body>
    <div class="card failed">
        <h1>Authorization failed</h1>
        <p>{{.Message}}</p>
        {{if .Code}}<p><code>{{.Code}}</code></p>{{end}}
    </div>
</body>
</html>
`
