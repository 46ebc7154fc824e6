package transcript

import "html"

// TranscriptFilename is the rendered transcript inside the archive directory
const TranscriptFilename = "index.html"

// escapeText escapes ampersand, angle brackets, and both quote characters so
// plain-text bodies embed safely in markup
func escapeText(s string) string {
	return html.EscapeString(s)
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Chat Archive</title>
<style>
body {
  font-family: "Segoe UI", Helvetica, Arial, sans-serif;
  background: #f5f5f5;
  margin: 0 auto;
  max-width: 720px;
  padding: 16px;
}
.date-separator {
  text-align: center;
  color: #616161;
  font-size: 12px;
  margin: 24px 0 8px 0;
}
.message {
  max-width: 78%;
  border-radius: 6px;
  background: #ffffff;
  box-shadow: 0 1px 1px rgba(0,0,0,0.12);
  padding: 8px 12px;
}
.message.right {
  margin-left: auto;
  background: #e8ebfa;
}
.message.left {
  margin-right: auto;
}
.message.spaced {
  margin-top: 12px;
}
.message.collapsed {
  margin-top: 2px;
}
.header {
  font-size: 12px;
  color: #616161;
  margin-bottom: 4px;
}
.header .sender {
  font-weight: 600;
  color: #252525;
  margin-right: 8px;
}
.header .edited {
  font-style: italic;
  margin-left: 8px;
}
.quote {
  border-left: 3px solid #b5b5b5;
  padding: 4px 8px;
  margin: 4px 0;
  font-size: 13px;
  color: #424242;
  background: #fafafa;
}
.quote .quote-meta {
  font-size: 11px;
  color: #757575;
}
.body {
  font-size: 14px;
  color: #252525;
  word-wrap: break-word;
}
.body img {
  max-width: 100%;
}
.reactions {
  margin-top: 4px;
}
.reactions img {
  width: 16px;
  height: 16px;
  margin-right: 2px;
  vertical-align: middle;
}
</style>
</head>
<body>
`

// htmlFooter closes the document and localizes every absolute timestamp to
// the viewer's clock
const htmlFooter = `<script>
document.querySelectorAll("[data-timestamp]").forEach(function (el) {
  var ms = parseInt(el.getAttribute("data-timestamp"), 10);
  if (!isNaN(ms)) {
    el.textContent = new Date(ms).toLocaleTimeString([], { hour: "2-digit", minute: "2-digit" });
  }
});
</script>
</body>
</html>
`
