package server

import (
	"fmt"
	"time"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const appName = "Pokecounter"

// PageLayout wraps content in the shared document shell.
func PageLayout(title string, navbar g.Node, content g.Node, footer g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				Meta(Name("description"), Content("Count your shiny hunts.")),
				TitleEl(g.Text(title)),
				Script(Src("https://cdn.tailwindcss.com")),
				Script(Src("https://unpkg.com/htmx.org@2.0.4")),
				StyleEl(g.Raw(`
					::selection { background: #eab308; color: #111827; }
					input:focus-visible, button:focus-visible, select:focus-visible {
						outline: 2px solid #facc15;
						outline-offset: 2px;
					}
					@keyframes celebrate {
						0% { box-shadow: 0 0 0 0 rgba(250, 204, 21, 0.9); transform: scale(1); }
						30% { transform: scale(1.02); }
						100% { box-shadow: 0 0 0 24px rgba(250, 204, 21, 0); transform: scale(1); }
					}
					.celebrate { animation: celebrate 3s ease-out 1 forwards; }
				`)),
			),
			Body(Class("bg-slate-950 font-sans antialiased flex flex-col min-h-screen text-slate-300"),
				navbar,
				Div(Class("flex-grow"), content),
				footer,
			),
		),
	})
}

// Navbar renders the top bar. email is empty for anonymous visitors.
func Navbar(currentPath, email string) g.Node {
	navLink := func(href, label string) g.Node {
		base := "px-3 py-2 rounded-md text-sm font-medium "
		if currentPath == href {
			base += "text-yellow-400 bg-yellow-400/10"
		} else {
			base += "text-slate-400 hover:text-white hover:bg-slate-800/50"
		}
		return A(Href(href), Class(base), g.Text(label))
	}

	return Nav(Class("bg-slate-900/80 text-white p-4 shadow-lg sticky top-0 z-50 border-b border-slate-700/50"),
		Div(Class("container mx-auto flex justify-between items-center"),
			A(Href("/"), Class("text-xl font-bold tracking-tight hover:text-yellow-400"), g.Text(appName)),
			Div(Class("flex items-center gap-1"),
				g.If(email != "", navLink("/", "Hunts")),
				navLink("/about", "About"),
				g.If(email != "",
					Form(Method("POST"), Action("/logout"), Class("flex items-center gap-2 ml-3"),
						Span(Class("text-xs text-slate-500 hidden sm:inline"), g.Text(email)),
						Button(Type("submit"), ID("logout"),
							Class("px-3 py-2 rounded-md text-sm font-medium text-slate-400 hover:text-white hover:bg-slate-800/50"),
							g.Text("Sign out"),
						),
					),
				),
				g.If(email == "", navLink("/login", "Sign in")),
			),
		),
	)
}

func FooterEl() g.Node {
	return Footer(Class("bg-slate-900/50 text-slate-500 mt-auto border-t border-slate-800/50"),
		Div(Class("container mx-auto px-4 py-6 flex justify-between text-sm"),
			P(g.Text("Gotta count 'em all!")),
			P(g.Text(fmt.Sprintf("© %d %s", time.Now().Year(), appName))),
		),
	)
}

func errorBanner(msg string) g.Node {
	return Div(Class("bg-red-900/20 border border-red-800/50 text-red-400 px-4 py-3 rounded-lg mb-6"),
		Strong(g.Text("Error: ")), g.Text(msg),
	)
}

func successBanner(msg string) g.Node {
	return Div(Class("bg-emerald-900/20 border border-emerald-800/50 text-emerald-400 px-4 py-3 rounded-lg mb-6"),
		g.Text(msg),
	)
}
