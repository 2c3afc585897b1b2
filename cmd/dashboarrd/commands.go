package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/dashboarrd/auth"
	"github.com/jrsteele09/dashboarrd/callback"
	"github.com/jrsteele09/dashboarrd/identity"
	"github.com/jrsteele09/dashboarrd/internal/config"
	"github.com/jrsteele09/dashboarrd/updates"
	"github.com/jrsteele09/dashboarrd/users"
	"github.com/rs/zerolog/log"
)

const loginTimeout = 5 * time.Minute

var errNotSignedIn = errors.New("not signed in, run `dashboarrd login`")

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	listen := fs.String("listen", "", "address for the redirect listener (web platform), defaults to the redirect URI host")
	session := fs.String("session", "", "provider session cookie copied from a signed-in browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *session != "" {
		return a.loginWithCookie(ctx, *session)
	}

	plan, err := a.auth.StartLogin(ctx)
	if err != nil {
		return err
	}

	if plan.Method == auth.LoginMethodCookie {
		fmt.Printf("Single sign-on is not available. Sign in at:\n\n  %s\n\n", plan.URL)
		fmt.Printf("then run `dashboarrd login -session <%s cookie>`.\n", identity.SessionCookieName)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	var res callback.Result
	if a.cfg.GetPlatform() == config.PlatformWeb {
		res, err = a.awaitRedirect(ctx, plan.URL, *listen)
	} else {
		res, err = promptRedirect(plan.URL)
	}
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}

	user, err := a.auth.HandleCallback(ctx, res.Code, res.State)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	printUser(user)
	return nil
}

func (a *app) awaitRedirect(ctx context.Context, authURL, listen string) (callback.Result, error) {
	options := []callback.Option{callback.WithEnv(a.cfg.GetEnv())}
	if listen != "" {
		options = append(options, callback.WithListenAddr(listen))
	}
	srv, err := callback.New(a.cfg.GetRedirectURI(), options...)
	if err != nil {
		return callback.Result{}, err
	}
	if err := srv.Start(); err != nil {
		return callback.Result{}, err
	}
	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Err(err).Msg("callback.Shutdown")
		}
	}()

	fmt.Printf("Open this URL to sign in:\n\n  %s\n\n", authURL)
	return srv.Wait(ctx)
}

// promptRedirect reads the app-scheme redirect the provider sent the browser to.
func promptRedirect(authURL string) (callback.Result, error) {
	fmt.Printf("Open this URL to sign in:\n\n  %s\n\nthen paste the address you were redirected to: ", authURL)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return callback.Result{}, fmt.Errorf("read redirect: %w", err)
	}
	return callback.ParseRedirect(strings.TrimSpace(line))
}

func (a *app) loginWithCookie(ctx context.Context, value string) error {
	if err := a.identity.SetSessionCookie(value); err != nil {
		return err
	}
	user, err := a.identity.UserInfo(ctx)
	if err != nil {
		return fmt.Errorf("session cookie rejected: %w", err)
	}
	if err := a.sessions.Save(value); err != nil {
		return err
	}
	printUser(user)
	return nil
}

func (a *app) status(ctx context.Context) error {
	st := a.auth.CheckStatus(ctx)
	if !st.Authenticated {
		fmt.Println("Not signed in.")
		return nil
	}
	printUser(st.User)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	watch := fs.Duration("watch", 0, "reload at this interval until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.signedIn(ctx, true); err != nil {
		return err
	}

	d, err := a.dashboardClient()
	if err != nil {
		return err
	}

	for {
		sum, err := d.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := printJSON(sum); err != nil {
			return err
		}
		if *watch <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(*watch):
		}
	}
}

// signedIn returns the current user, requiring membership of the admin group when
// admin is set.
func (a *app) signedIn(ctx context.Context, admin bool) (*users.User, error) {
	st := a.auth.CheckStatus(ctx)
	if !st.Authenticated || st.User == nil {
		return nil, errNotSignedIn
	}
	if admin && !users.IsUserAdmin(st.User) {
		return nil, fmt.Errorf("%s is not a member of %s", st.User.Username, users.AdminGroup)
	}
	return st.User, nil
}

func (a *app) update(ctx context.Context) error {
	res := a.updateChecker().Check(ctx)
	if !res.UpdateAvailable {
		fmt.Printf("Dashboarrd %s is up to date.\n", res.CurrentVersion)
		return nil
	}
	fmt.Printf("Dashboarrd %s is available (installed %s), released %s:\n  %s\n",
		res.Latest.Version, res.CurrentVersion, updates.RelativeDate(res.Latest.PublishedAt, time.Now()), res.Latest.DownloadURL)
	return nil
}

func printUser(u *users.User) {
	if u == nil {
		fmt.Println("Signed in.")
		return
	}
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Printf("Signed in as %s (%s, %s)\n", name, u.Username, role)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
