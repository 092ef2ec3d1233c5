package server

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Review Sentiment Analysis</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; }
textarea { width: 100%; height: 10em; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.error { color: #b00020; }
</style>
</head>
<body>
<h1>Review Sentiment Analysis</h1>
<p>Enter reviews separated by periods or new lines, upload a spreadsheet whose first column holds one review per row, or both.</p>
<form method="post" action="/analyze" enctype="multipart/form-data">
<textarea name="text" placeholder="Enter reviews here">{{.Text}}</textarea>
<p><input type="file" name="file" accept=".xlsx,.xlsm,.csv,.tsv"></p>
<p><button type="submit">Analyze</button></p>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{with .Outcome}}
<h2>Results</h2>
{{if .ReportPath}}<p><a href="/report.xlsx">Download report</a></p>{{end}}
{{if .ChartPath}}<p><img src="/chart.png?id={{.ReportID}}" alt="Sentiment distribution"></p>{{end}}
<table>
<tr><th>Review</th><th>Sentiment</th></tr>
{{range .Report}}<tr><td>{{.ReviewText}}</td><td>{{.SentimentLabel}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))
