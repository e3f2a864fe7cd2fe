package commands

import (
	"github.com/muesli/termenv"

	"tableflip.dev/memos/pkg/config"
	"tableflip.dev/memos/pkg/draft"
	"tableflip.dev/memos/pkg/errs"
	"tableflip.dev/memos/pkg/launch"
	"tableflip.dev/memos/pkg/logging"
	"tableflip.dev/memos/pkg/mutation"
	"tableflip.dev/memos/pkg/printers"
	"tableflip.dev/memos/pkg/remote"
	"tableflip.dev/memos/pkg/router"
	"tableflip.dev/memos/pkg/settings"
	"tableflip.dev/memos/pkg/signal"
)

// env is what every command resolves before doing work.
type env struct {
	cfg      config.Config
	settings *settings.Store
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Configure(cfg.LogLevel(), cfg.LogFormat())

	st, err := settings.Open(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, settings: st}, nil
}

// repository connects to the current account's server. The account host
// wins over server.url from the config file.
func (e *env) repository() (remote.Repository, error) {
	s, err := e.settings.Load()
	if err != nil {
		return nil, err
	}
	u, ok := s.Current()
	if !ok {
		return nil, errs.New(errs.CodeAuth, "no current account; add one with `memos account add`")
	}
	host := u.Host
	if host == "" {
		host = e.cfg.ServerURL()
	}
	return remote.NewHTTPRepository(host, u.AccessToken)
}

// coordinator returns the shared write path. Successful writes notify the
// widget host, if one is listening.
func (e *env) coordinator() (*mutation.Coordinator, error) {
	repo, err := e.repository()
	if err != nil {
		return nil, err
	}
	return mutation.New(repo, signal.Multi{signal.NewHostNotifier(e.cfg.WidgetSocket())}), nil
}

func (e *env) drafts() *draft.Store {
	return draft.New(e.settings)
}

func (e *env) inbox() (*launch.Inbox, error) {
	return launch.OpenInbox(e.cfg.InboxPath())
}

func (e *env) router() (*router.Router, error) {
	in, err := e.inbox()
	if err != nil {
		return nil, err
	}
	return router.New(launch.NewLauncher(in, e.cfg.PIDFile())), nil
}

// printer renders markdown without styling when the terminal has no color.
func printer(showID bool) *printers.PrettyPrint {
	pp := &printers.PrettyPrint{ShowID: showID}
	if termenv.EnvColorProfile() == termenv.Ascii {
		pp.MarkdownStyle = "notty"
	}
	return pp
}
