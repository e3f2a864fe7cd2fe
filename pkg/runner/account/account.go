// Package account manages the registered server accounts.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/manifoldco/promptui"

	"tableflip.dev/memos/pkg/commands/options"
	"tableflip.dev/memos/pkg/printers"
	"tableflip.dev/memos/pkg/settings"
)

// Add registers an account. Missing fields are prompted for when Prompt is
// set.
type Add struct {
	Key     string
	Host    string
	Token   string
	Current bool
	Prompt  bool

	Settings *settings.Store
	Stdin    io.ReadCloser
	Stdout   io.WriteCloser
}

func validateHost(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server url %q", s)
	}
	return nil
}

func (n *Add) prompt(label string, value *string, mask rune, validate promptui.ValidateFunc) error {
	if *value != "" || !n.Prompt {
		return nil
	}
	p := promptui.Prompt{
		Label:    label,
		Mask:     mask,
		Validate: validate,
		Stdin:    n.Stdin,
		Stdout:   n.Stdout,
	}
	v, err := p.Run()
	if err != nil {
		return err
	}
	*value = strings.TrimSpace(v)
	return nil
}

func (n *Add) Do(_ context.Context) error {
	if n.Settings == nil {
		return errors.New("can not add account, no settings store")
	}
	if err := n.prompt("Server URL", &n.Host, 0, validateHost); err != nil {
		return err
	}
	if err := n.prompt("Access token", &n.Token, '*', nil); err != nil {
		return err
	}
	if err := validateHost(n.Host); err != nil {
		return err
	}
	if n.Key == "" {
		u, _ := url.Parse(strings.TrimSpace(n.Host))
		n.Key = u.Host
	}
	return n.Settings.AddUser(settings.User{
		AccountKey:  n.Key,
		Host:        strings.TrimRight(strings.TrimSpace(n.Host), "/"),
		AccessToken: n.Token,
	}, n.Current)
}

// Use switches the current account, offering a picker when Key is empty.
type Use struct {
	Key string

	Settings *settings.Store
	Stdin    io.ReadCloser
	Stdout   io.WriteCloser
}

func (n *Use) Do(_ context.Context) error {
	if n.Settings == nil {
		return errors.New("can not switch account, no settings store")
	}
	if n.Key == "" {
		s, err := n.Settings.Load()
		if err != nil {
			return err
		}
		if len(s.Users) == 0 {
			return errors.New("no accounts; add one with `memos account add`")
		}
		templates := &promptui.SelectTemplates{
			Label:    "{{ . }}?",
			Active:   "➜  {{ .AccountKey }} {{ .Host | cyan }}",
			Inactive: "   {{ .AccountKey }} {{ .Host | cyan }}",
			Selected: "➜  {{ .AccountKey | green }}",
		}
		prompt := promptui.Select{
			HideHelp:  true,
			Label:     "Account",
			Items:     s.Users,
			Templates: templates,
			Size:      10,
			Stdin:     n.Stdin,
			Stdout:    n.Stdout,
		}
		i, _, err := prompt.Run()
		if err != nil {
			return err
		}
		n.Key = s.Users[i].AccountKey
	}
	return n.Settings.SetCurrentUser(n.Key)
}

// List prints accounts.
type List struct {
	Settings *settings.Store
	Printer  *printers.PrettyPrint
	Output   *options.OutputOptions
}

type accountJSON struct {
	AccountKey string `json:"accountKey"`
	Host       string `json:"host,omitempty"`
	Current    bool   `json:"current"`
	HasDraft   bool   `json:"hasDraft"`
}

func (n *List) Do(_ context.Context) error {
	if n.Settings == nil {
		return errors.New("can not list accounts, no settings store")
	}
	s, err := n.Settings.Load()
	if err != nil {
		return err
	}
	if n.Output != nil && n.Output.JSON {
		out := make([]accountJSON, 0, len(s.Users))
		for _, u := range s.Users {
			// Tokens stay out of the output.
			out = append(out, accountJSON{
				AccountKey: u.AccountKey,
				Host:       u.Host,
				Current:    u.AccountKey == s.CurrentUser,
				HasDraft:   u.Settings.Draft != "",
			})
		}
		return n.Output.Write(out)
	}
	pp := n.Printer
	if pp == nil {
		pp = &printers.PrettyPrint{}
	}
	pp.Accounts(s)
	return nil
}
