package demoserver

// PageDefinition is one page served by the demo site.
type PageDefinition struct {
	Path        string
	Description string
	// HTML is a html/template source; it is executed with the server Config.
	HTML        string
	ContentType string
	// RedirectTo, when set, answers with 301 to that path instead of HTML.
	RedirectTo string
}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getMenuPage(),
		getAppShellPage(),
		getEmptyBodyPage(),
		{Path: "/old-home", Description: "Permanent redirect to the home page", RedirectTo: "/"},
	}
}

// ===== HOME PAGE =====
// Server-rendered, already carries some tags so the audit has something to find.
func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Static landing page with partial meta tags",
		HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>{{.SiteName}} - Fresh bread every morning</title>
    <meta name="description" content="Family bakery baking sourdough and banana bread since 1998.">
    <meta property="og:site_name" content="{{.SiteName}}">
    <link rel="stylesheet" href="/static/site.css">
    <script>window.analytics = [];</script>
</head>
<body>
    <header class="hero">
        <h1>{{.SiteName}}</h1>
        <p>Sourdough, rye and the famous banana bread, baked before sunrise.</p>
        <a href="/menu">See the menu</a>
        <a href="javascript:alert('hi')" onclick="track()">Say hi</a>
    </header>
    <section>
        <h2>Visit us</h2>
        <p>Open Tuesday to Sunday, 7am to 2pm, on the corner of Elm and Main.</p>
    </section>
</body>
</html>`,
	}
}

// ===== MENU PAGE =====
func getMenuPage() PageDefinition {
	return PageDefinition{
		Path:        "/menu",
		Description: "Static page without any meta tags",
		HTML: `<!DOCTYPE html>
<html>
<head><title>Menu</title></head>
<body>
    <h1>Menu</h1>
    <ul>
        <li>Country sourdough</li>
        <li>Seeded rye</li>
        <li>Banana bread with walnuts</li>
    </ul>
</body>
</html>`,
	}
}

// ===== APP SHELL =====
// Client-rendered: the body is empty until /static/app.js runs.
func getAppShellPage() PageDefinition {
	return PageDefinition{
		Path:        "/app",
		Description: "JavaScript-only single page app shell",
		HTML: `<!DOCTYPE html>
<html>
<head>
    <title>{{.SiteName}} Orders</title>
    <script src="/static/app.js" defer></script>
</head>
<body>
    <noscript>You need to enable JavaScript to run this app.</noscript>
    <div id="root"></div>
</body>
</html>`,
	}
}

// ===== EMPTY BODY =====
func getEmptyBodyPage() PageDefinition {
	return PageDefinition{
		Path:        "/blank",
		Description: "Page whose body has no visible text",
		HTML: `<!DOCTYPE html>
<html>
<head><title>Loading</title></head>
<body><div id="mount">&nbsp;</div><script src="/static/app.js"></script></body>
</html>`,
	}
}

const appJS = `document.getElementById("root").innerHTML =
  "<h1>Order ahead</h1><p>Pick a loaf and collect it warm.</p>";
`

const siteCSS = `body { font-family: Georgia, serif; background: #fff8e1; color: #3e2723; }
.hero { padding: 4rem 2rem; background: #ffd54f; }
`
