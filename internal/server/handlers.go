package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pokecounter/pokecounter/pkg/tracker"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const (
	inputClass  = "px-3 py-2 border border-slate-700 rounded-lg bg-slate-800/50 text-slate-200 placeholder-slate-500 disabled:opacity-50"
	buttonClass = "px-3 py-2 rounded-lg font-medium transition-colors duration-200 disabled:opacity-40 disabled:cursor-not-allowed"
)

func (s *Server) render(w http.ResponseWriter, n g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := n.Render(w); err != nil {
		s.log.WithError(err).Error("Error rendering page")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, us *userSession) {
	list := s.listFor(us)
	loadErr := list.Load(r.Context())

	s.render(w, PageLayout(
		appName,
		Navbar("/", us.auth.Identity().Email),
		Main(Class("container mx-auto mt-10 mb-20 px-4 max-w-4xl"),
			s.huntsSection(list, "", "", loadErr),
		),
		FooterEl(),
	))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, us *userSession) {
	name := r.FormValue("name")
	list := s.listFor(us)

	msg, draft := "", ""
	if _, err := list.Create(r.Context(), name); err != nil {
		draft = name
		var ve *tracker.ValidationError
		if errors.As(err, &ve) {
			msg = ve.Msg
		}
	}
	s.render(w, s.huntsSection(list, msg, draft, nil))
}

// huntOp performs one row interaction against the list.
type huntOp func(ctx context.Context, l *tracker.List, id string, r *http.Request) error

func adjustBy(delta int) huntOp {
	return func(ctx context.Context, l *tracker.List, id string, _ *http.Request) error {
		_, err := l.Adjust(ctx, id, delta)
		return err
	}
}

func editCount(ctx context.Context, l *tracker.List, id string, r *http.Request) error {
	_, err := l.EditCount(ctx, id, r.FormValue(tracker.ColumnCount))
	return err
}

func setField(column string) huntOp {
	return func(ctx context.Context, l *tracker.List, id string, r *http.Request) error {
		m, err := tracker.ParseMutation(column, r.FormValue(column))
		if err != nil {
			return err
		}
		_, err = l.Apply(ctx, id, m)
		return err
	}
}

func toggleStatus(ctx context.Context, l *tracker.List, id string, _ *http.Request) error {
	_, err := l.ToggleStatus(ctx, id)
	return err
}

func markDelete(_ context.Context, l *tracker.List, id string, _ *http.Request) error {
	return l.MarkDelete(id)
}

func cancelDelete(_ context.Context, l *tracker.List, id string, _ *http.Request) error {
	l.CancelDelete(id)
	return nil
}

// huntAction runs op on the row named in the path and re-renders that row.
// editOnly ops are refused while the hunt is closed.
func (s *Server) huntAction(editOnly bool, op huntOp) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, us *userSession) {
		list := s.listFor(us)
		id := r.PathValue("id")
		before, ok := list.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}

		log := s.log.WithField("id", id)
		if editOnly && !before.Editable() {
			log.Debug("Ignoring edit of a closed hunt")
		} else if err := op(r.Context(), list, id, r); err != nil && tracker.IsValidation(err) {
			log.WithError(err).Debug("Rejected hunt edit")
		}

		after, ok := list.Get(id)
		if !ok {
			return
		}
		celebrate := before.Status == tracker.StatusOpen && after.Status == tracker.StatusClosed
		s.render(w, s.huntRow(after, list.MarkedForDelete(id), celebrate))
	}
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request, us *userSession) {
	list := s.listFor(us)
	id := r.PathValue("id")
	err := list.Delete(r.Context(), id)
	if err == nil {
		// Empty body: htmx swaps the row out.
		w.WriteHeader(http.StatusOK)
		return
	}
	it, ok := list.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, s.huntRow(it, list.MarkedForDelete(id), false))
}

func (s *Server) handleSprite(w http.ResponseWriter, r *http.Request, _ *userSession) {
	if s.sprites == nil {
		return
	}
	name := r.PathValue("name")
	sprite, ok := s.sprites.Lookup(r.Context(), name)
	if !ok {
		s.render(w, Div(Class("w-16 h-16")))
		return
	}
	s.render(w, Img(Src(sprite), Alt(name), Class("w-16 h-16 sprite")))
}

// huntsSection renders the create form and the list. It is the swap target
// of the create form.
func (s *Server) huntsSection(list *tracker.List, createErr, draft string, loadErr error) g.Node {
	items := list.Items()
	rows := make([]g.Node, 0, len(items))
	for _, it := range items {
		rows = append(rows, s.huntRow(it, list.MarkedForDelete(it.ID), false))
	}

	nameOptions := []g.Node{}
	for _, n := range s.names.Names() {
		nameOptions = append(nameOptions, Option(Value(n)))
	}
	gameOptions := []g.Node{}
	for _, game := range tracker.Games {
		gameOptions = append(gameOptions, Option(Value(game)))
	}

	return Section(ID("hunts"),
		H1(Class("text-2xl md:text-3xl font-bold text-white mb-6"), g.Text("Your hunts")),
		Form(ID("create-hunt"), Method("POST"), Action("/hunts"),
			Class("flex flex-col sm:flex-row gap-2 mb-2"),
			g.Attr("hx-post", "/hunts"),
			g.Attr("hx-target", "#hunts"),
			g.Attr("hx-swap", "outerHTML"),
			Input(Type("text"), Name("name"), Value(draft), Placeholder("Pokémon name"),
				g.Attr("list", "pokemon-names"), g.Attr("autocomplete", "off"),
				Class(inputClass+" flex-1"),
			),
			Button(Type("submit"), Class(buttonClass+" bg-yellow-500 text-slate-900 hover:bg-yellow-400"), g.Text("Start hunt")),
		),
		g.If(createErr != "", P(ID("create-error"), Class("text-red-400 text-sm mb-4"), g.Text(createErr))),
		g.If(loadErr != nil, errorBanner("Could not load your hunts.")),
		g.El("datalist", ID("pokemon-names"), g.Group(nameOptions)),
		g.El("datalist", ID("games"), g.Group(gameOptions)),
		g.If(len(items) == 0 && loadErr == nil,
			P(Class("text-slate-500 mt-8 text-center"), g.Text("No hunts yet. Start one above!")),
		),
		Ul(ID("hunt-list"), Class("space-y-4 mt-6"), g.Group(rows)),
	)
}

// translation returns the other-language spelling of name, if it differs.
func (s *Server) translation(name string) string {
	e, ok := s.names.Lookup(name)
	if !ok {
		return ""
	}
	other := e.German
	if strings.EqualFold(strings.TrimSpace(name), e.German) {
		other = e.English
	}
	if strings.EqualFold(other, strings.TrimSpace(name)) {
		return ""
	}
	return other
}

func (s *Server) huntRow(it tracker.Item, marked, celebrate bool) g.Node {
	base := "/hunts/" + url.PathEscape(it.ID)
	editable := it.Editable()
	closed := it.Status == tracker.StatusClosed

	cls := "hunt p-4 rounded-xl border "
	if closed {
		cls += "border-yellow-500/50 bg-yellow-500/5"
	} else {
		cls += "border-slate-800 bg-slate-900/40"
	}
	if celebrate {
		cls += " celebrate"
	}

	swap := func(verb, path string) g.Node {
		return g.Group([]g.Node{
			g.Attr(verb, path),
			g.Attr("hx-target", "closest li"),
			g.Attr("hx-swap", "outerHTML"),
		})
	}

	methodOptions := []g.Node{Option(Value(""), g.Text("No method"), g.If(it.Method == tracker.MethodNone, Selected()))}
	for _, m := range tracker.Methods {
		methodOptions = append(methodOptions, Option(Value(string(m)), g.Text(string(m)), g.If(it.Method == m, Selected())))
	}

	var deleteControls g.Node
	if marked {
		deleteControls = Span(Class("flex items-center gap-2 ml-auto"),
			Span(Class("text-sm text-red-400"), g.Text("Delete this hunt?")),
			Button(Type("button"), Class(buttonClass+" confirm-delete bg-red-600 text-white hover:bg-red-500"), swap("hx-delete", base), g.Text("Delete")),
			Button(Type("button"), Class(buttonClass+" cancel-delete bg-slate-700 hover:bg-slate-600"), swap("hx-post", base+"/delete/cancel"), g.Text("Cancel")),
		)
	} else {
		deleteControls = Button(Type("button"), Class(buttonClass+" mark-delete ml-auto text-slate-500 hover:text-red-400"), swap("hx-post", base+"/delete"), g.Text("Delete"))
	}

	statusLabel := "Found it!"
	if closed {
		statusLabel = "Reopen"
	}

	translated := s.translation(it.Name)

	return Li(ID("hunt-"+it.ID), Class(cls), g.Attr("data-status", string(it.Status)),
		Div(Class("flex items-center gap-4"),
			g.If(s.sprites != nil,
				Div(Class("w-16 h-16"),
					g.Attr("hx-get", "/sprites/"+url.PathEscape(it.Name)),
					g.Attr("hx-trigger", "load"),
					g.Attr("hx-swap", "outerHTML"),
				),
			),
			Div(Class("flex-1"),
				H2(Class("text-lg font-semibold text-white"),
					Span(Class("name"), g.Text(it.Name)),
					g.If(translated != "", Span(Class("translation text-sm text-slate-500 ml-2"), g.Text(translated))),
				),
				P(Class("text-xs text-slate-500"), g.Text("Started "+it.CreatedAt.Local().Format("2006-01-02"))),
			),
			Div(Class("flex items-center gap-2"),
				Button(Type("button"), Class(buttonClass+" decrement bg-slate-800 hover:bg-slate-700"),
					swap("hx-post", base+"/dec"),
					g.If(!editable || it.Count == 0, Disabled()),
					g.Text("−"),
				),
				Input(Type("number"), Name(tracker.ColumnCount), Value(strconv.Itoa(it.Count)),
					g.Attr("min", "0"),
					Class(inputClass+" count w-28 text-center text-xl font-bold tabular-nums"),
					swap("hx-put", base+"/count"),
					g.Attr("hx-trigger", "change"),
					g.If(!editable, Disabled()),
				),
				Button(Type("button"), Class(buttonClass+" increment bg-yellow-500 text-slate-900 hover:bg-yellow-400"),
					swap("hx-post", base+"/inc"),
					g.If(!editable, Disabled()),
					g.Text("+"),
				),
			),
		),
		Div(Class("flex flex-wrap items-center gap-3 mt-3"),
			Select(Name(tracker.ColumnMethod), Class(inputClass+" method"),
				swap("hx-put", base+"/method"),
				g.Attr("hx-trigger", "change"),
				g.If(!editable, Disabled()),
				g.Group(methodOptions),
			),
			Input(Type("text"), Name(tracker.ColumnGame), Value(it.Game), Placeholder("Game"),
				g.Attr("list", "games"),
				Class(inputClass+" game"),
				swap("hx-put", base+"/game"),
				g.Attr("hx-trigger", "change"),
				g.If(!editable, Disabled()),
			),
			Button(Type("button"), Class(buttonClass+" toggle-status bg-slate-800 hover:bg-slate-700"),
				swap("hx-post", base+"/status"),
				g.Text(statusLabel),
			),
			deleteControls,
		),
	)
}
