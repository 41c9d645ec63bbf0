package server

import (
	"net/http"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/pokecounter/pokecounter/pkg/auth"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const (
	actionSignIn = "signin"
	actionSignUp = "signup"
	actionReset  = "reset"
)

func (s *Server) currentEmail(r *http.Request) string {
	if us, ok := s.lookup(r); ok {
		return us.auth.Identity().Email
	}
	return ""
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if us, ok := s.lookup(r); ok && us.auth.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, s.loginPage("", nil))
}

func (s *Server) loginPage(email string, result g.Node) g.Node {
	field := func(label, typ, name, value string) g.Node {
		return Div(Class("mb-4"),
			Label(For(name), Class("block text-sm text-slate-400 mb-1"), g.Text(label)),
			Input(ID(name), Type(typ), Name(name), Value(value), Class(inputClass+" w-full")),
		)
	}
	action := func(value, label, extra string) g.Node {
		return Button(Type("submit"), Name("action"), Value(value), Class(buttonClass+" "+extra), g.Text(label))
	}

	return PageLayout(
		"Sign in - "+appName,
		Navbar("/login", ""),
		Main(Class("container mx-auto mt-16 mb-20 px-4 max-w-md"),
			Section(Class("bg-slate-900/30 border border-slate-800/50 rounded-2xl p-8"),
				H1(Class("text-2xl font-bold text-white mb-6"), g.Text("Welcome to "+appName)),
				Form(ID("auth-form"), Method("POST"), Action("/login"),
					g.Attr("hx-post", "/login"),
					g.Attr("hx-target", "#auth-result"),
					field("Email", "email", "email", email),
					field("Password", "password", "password", ""),
					Div(Class("flex flex-wrap gap-2 mt-6"),
						action(actionSignIn, "Sign in", "bg-yellow-500 text-slate-900 hover:bg-yellow-400"),
						action(actionSignUp, "Sign up", "bg-slate-700 hover:bg-slate-600"),
						action(actionReset, "Forgot password?", "text-slate-400 hover:text-white"),
					),
				),
				Div(ID("auth-result"), Class("mt-6"), result),
			),
		),
		FooterEl(),
	)
}

func authResult(res auth.Result, notice string) g.Node {
	if res.Error != "" {
		return errorBanner(res.Error)
	}
	if res.Success && notice != "" {
		return successBanner(notice)
	}
	return nil
}

// handleLogin runs the sign in, sign up or reset action named by the
// clicked button and shows its result inline.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	us := s.session(r)
	ctx := r.Context()
	email := r.FormValue("email")
	password := r.FormValue("password")

	var res auth.Result
	notice := ""
	switch r.FormValue("action") {
	case actionSignUp:
		res = s.auth.SignUp(ctx, us.auth, email, password)
		notice = "Check your email to confirm your account."
	case actionReset:
		res = s.auth.ResetPassword(ctx, email, s.resetRedirect(r))
		notice = "If that address has an account, a reset link is on its way."
	default:
		res = s.auth.SignIn(ctx, us.auth, email, password)
	}

	if res.Success && us.auth.Authenticated() {
		us.dropList()
		s.remember(w, us)
		redirect(w, r, "/")
		return
	}

	result := authResult(res, notice)
	if isHTMX(r) {
		if result != nil {
			s.render(w, result)
		}
		return
	}
	s.render(w, s.loginPage(email, result))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	us, ok := s.lookup(r)
	if !ok {
		redirect(w, r, "/login")
		return
	}
	if res := s.auth.SignOut(r.Context(), us.auth); res.Error != "" {
		s.log.WithField("error", res.Error).Warn("Logout failed")
		redirect(w, r, "/")
		return
	}
	us.dropList()
	s.forget(w, us)
	redirect(w, r, "/login")
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	var body g.Node
	switch _, resetter := s.auth.Provider().(auth.Resetter); {
	case !resetter:
		body = successBanner("Follow the link in your email to choose a new password.")
	case token == "":
		body = errorBanner(auth.ErrInvalidToken.Error())
	default:
		body = Form(ID("reset-form"), Method("POST"), Action("/password-reset"),
			g.Attr("hx-post", "/password-reset"),
			g.Attr("hx-target", "#reset-result"),
			Input(Type("hidden"), Name("token"), Value(token)),
			Label(For("password"), Class("block text-sm text-slate-400 mb-1"), g.Text("New password")),
			Input(ID("password"), Type("password"), Name("password"), Class(inputClass+" w-full mb-4")),
			Button(Type("submit"), Class(buttonClass+" bg-yellow-500 text-slate-900 hover:bg-yellow-400"), g.Text("Set password")),
		)
	}
	s.render(w, resetPage(s.currentEmail(r), body, nil))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res := s.auth.CompleteReset(r.Context(), r.FormValue("token"), r.FormValue("password"))
	result := authResult(res, "Your password has been updated. You can sign in now.")
	if isHTMX(r) {
		if result != nil {
			s.render(w, result)
		}
		return
	}
	s.render(w, resetPage(s.currentEmail(r), nil, result))
}

func resetPage(email string, form, result g.Node) g.Node {
	return PageLayout(
		"Reset password - "+appName,
		Navbar("/password-reset", email),
		Main(Class("container mx-auto mt-16 mb-20 px-4 max-w-md"),
			Section(Class("bg-slate-900/30 border border-slate-800/50 rounded-2xl p-8"),
				H1(Class("text-2xl font-bold text-white mb-6"), g.Text("Choose a new password")),
				form,
				Div(ID("reset-result"), Class("mt-6"), result),
				P(Class("mt-4 text-sm"), A(Href("/login"), Class("text-yellow-400 hover:underline"), g.Text("Back to sign in"))),
			),
		),
		FooterEl(),
	)
}

const aboutMarkdownContent = `
# About Pokecounter

Pokecounter keeps count of your shiny hunts.

## How it works

*   Start a hunt by typing a Pokémon name, in English or German.
*   Press **+** for every encounter or reset. The count is saved right away.
*   Pick the method and the game you are hunting in.
*   When the shiny shows up, press **Found it!** to close the hunt.
    Closed hunts are read-only until you reopen them.
*   Deleting a hunt asks for confirmation first.

Gotta count 'em all!
`

func AboutContent() g.Node {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)

	htmlOutput := markdown.ToHTML([]byte(aboutMarkdownContent), p, nil)

	return Main(Class("container mx-auto mt-8 mb-16 p-4"),
		Section(Class("prose prose-invert max-w-3xl mx-auto"),
			g.Raw(string(htmlOutput)),
		),
	)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, PageLayout(
		"About - "+appName,
		Navbar("/about", s.currentEmail(r)),
		AboutContent(),
		FooterEl(),
	))
}
