package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"taxi-pet/internal/client/api"
	"taxi-pet/internal/client/session"
	"taxi-pet/internal/domain/pets"
	"taxi-pet/internal/domain/ratings"
	"taxi-pet/internal/domain/searchhistory"
	"taxi-pet/internal/domain/users"
)

var errUsage = errors.New("invalid arguments; run `taxipet help`")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// setFlags devuelve sólo los flags que el usuario pasó explícitamente.
func setFlags(fs *flag.FlagSet) map[string]bool {
	out := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { out[f.Name] = true })
	return out
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageErr("%v", err)
	}
	return nil
}

// prompt lee una línea de stdin cuando el valor no vino por flag.
func (a *app) prompt(label string) string {
	fmt.Fprint(a.out, label+": ")
	line, _ := a.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func (a *app) requireLogin() (api.Record, error) {
	me := a.sess.CurrentIdentity()
	if me == nil {
		return nil, session.ErrNotAuthenticated
	}
	return me, nil
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs := newFlags("signup")
	email := fs.String("email", "", "email")
	name := fs.String("name", "", "first name")
	surname := fs.String("surname", "", "surname")
	phone := fs.String("phone", "", "phone")
	cpf := fs.String("cpf", "", "CPF")
	address := fs.String("address", "", "address")
	pw := fs.String("password", "", "password (prompted if empty)")
	confirm := fs.String("confirm", "", "password confirmation (defaults to -password)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *pw == "" {
		*pw = a.prompt("Password")
		*confirm = a.prompt("Confirm password")
	} else if *confirm == "" {
		*confirm = *pw
	}

	u := users.User{
		Email:   *email,
		Name:    *name,
		Surname: *surname,
		Phone:   *phone,
		CPF:     *cpf,
		Address: *address,
	}
	fields := u.Record()
	fields["password"] = *pw
	fields["passwordConfirm"] = *confirm

	me, err := a.sess.Signup(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! You are logged in as %s.\n", me.String("name"), me.String("email"))
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	pw := fs.String("password", "", "password (prompted if empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		*email = a.prompt("Email")
	}
	if *pw == "" {
		*pw = a.prompt("Password")
	}

	me, err := a.sess.Login(ctx, *email, *pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", me.String("email"))
	return nil
}

func runLoginGoogle(ctx context.Context, a *app, _ []string) error {
	redir, err := newLoopbackRedirector(a.out)
	if err != nil {
		return err
	}
	defer redir.Close()

	// el contenedor se arma de nuevo con el redirector de este comando
	sess := session.New(session.Options{
		Backend:    a.client,
		Store:      a.store,
		Redirector: redir,
		Logger:     a.log,
	})
	a.client.SetTokenSource(sess.Token)
	sess.Init()

	type result struct {
		rec api.Record
		err error
	}
	done := make(chan result, 1)
	sess.LoginWithProvider(ctx, "google",
		func(rec api.Record) { done <- result{rec: rec} },
		func(err error) { done <- result{err: err} },
	)

	r := <-done
	if r.err != nil {
		return r.err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", r.rec.String("email"))
	return nil
}

func runLogout(_ context.Context, a *app, _ []string) error {
	a.sess.Logout()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	me, err := a.requireLogin()
	if err != nil {
		return err
	}
	u := users.UserFromRecord(me)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", u.ID)
	fmt.Fprintf(w, "email\t%s\n", u.Email)
	fmt.Fprintf(w, "name\t%s %s\n", u.Name, u.Surname)
	fmt.Fprintf(w, "phone\t%s\n", u.Phone)
	fmt.Fprintf(w, "cpf\t%s\n", u.CPF)
	fmt.Fprintf(w, "address\t%s\n", u.Address)
	if url := a.client.FileURL(users.Collection, me, "avatar"); url != "" {
		fmt.Fprintf(w, "avatar\t%s\n", url)
	}
	return w.Flush()
}

func runProfile(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 || args[0] != "set" {
		return usageErr("profile set [-name N] [-surname S] [-phone P] [-address A] [-avatar FILE]")
	}
	me, err := a.requireLogin()
	if err != nil {
		return err
	}

	fs := newFlags("profile set")
	name := fs.String("name", "", "first name")
	surname := fs.String("surname", "", "surname")
	phone := fs.String("phone", "", "phone")
	address := fs.String("address", "", "address")
	avatar := fs.String("avatar", "", "image file")
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}

	set := setFlags(fs)
	fields := api.Record{}
	for k, v := range map[string]*string{"name": name, "surname": surname, "phone": phone, "address": address} {
		if set[k] {
			fields[k] = *v
		}
	}
	if set["avatar"] {
		f, err := readFile(*avatar)
		if err != nil {
			return err
		}
		fields["avatar"] = f
	}
	if len(fields) == 0 {
		return usageErr("nothing to update")
	}

	if _, err := a.sess.UpdateProfile(ctx, me.ID(), fields); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated.")
	return nil
}

func runPets(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return usageErr("pets list | add | edit ID | rm ID")
	}
	me, err := a.requireLogin()
	if err != nil {
		return err
	}
	col := a.client.Collection(pets.Collection)

	switch args[0] {
	case "list":
		res, err := col.List(ctx, api.ListParams{Sort: "-created", PerPage: 100})
		if err != nil {
			return err
		}
		if len(res.Items) == 0 {
			fmt.Fprintln(a.out, "You have no pets yet. Add one with `taxipet pets add`.")
			return nil
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tAGE\tPHOTO")
		for _, rec := range res.Items {
			p := pets.FromRecord(rec)
			age := "-"
			if p.Age != nil {
				age = strconv.FormatFloat(*p.Age, 'f', -1, 64)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.AnimalType, p.Size, age, a.client.FileURL(pets.Collection, rec, "photo"))
		}
		return w.Flush()

	case "add", "edit":
		fs := newFlags("pets " + args[0])
		name := fs.String("name", "", "name")
		animal := fs.String("type", "", "animal type")
		size := fs.String("size", "", "small|medium|large")
		age := fs.Float64("age", 0, "age in years")
		phone := fs.String("phone", "", "contact phone")
		reg := fs.String("registration", "", "registration number")
		photo := fs.String("photo", "", "image file")

		rest := args[1:]
		var id string
		if args[0] == "edit" {
			if len(rest) == 0 {
				return usageErr("pets edit ID [flags]")
			}
			id, rest = rest[0], rest[1:]
		}
		if err := parseFlags(fs, rest); err != nil {
			return err
		}

		set := setFlags(fs)
		fields := api.Record{}
		for _, f := range []struct {
			flag, field string
			val         *string
		}{
			{"name", "name", name},
			{"type", "animal_type", animal},
			{"size", "size", size},
			{"phone", "phone", phone},
			{"registration", "registration_number", reg},
		} {
			if set[f.flag] {
				fields[f.field] = *f.val
			}
		}
		if set["age"] {
			fields["age"] = *age
		}
		if set["photo"] {
			f, err := readFile(*photo)
			if err != nil {
				return err
			}
			fields["photo"] = f
		}

		if id == "" {
			fields["userId"] = me.ID()
			rec, err := col.Create(ctx, fields)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added %s (%s).\n", rec.String("name"), rec.ID())
			return nil
		}
		if len(fields) == 0 {
			return usageErr("nothing to update")
		}
		rec, err := col.Update(ctx, id, fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated %s.\n", rec.String("name"))
		return nil

	case "rm":
		if len(args) < 2 {
			return usageErr("pets rm ID")
		}
		if err := col.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Removed.")
		return nil
	}
	return usageErr("unknown pets subcommand %q", args[0])
}

func runSearch(ctx context.Context, a *app, args []string) error {
	me, err := a.requireLogin()
	if err != nil {
		return err
	}
	addr := searchhistory.NormalizeAddress(strings.Join(args, " "))
	if addr == "" {
		return usageErr("search ADDRESS")
	}

	entry := searchhistory.Entry{UserID: me.ID(), Address: addr}
	if _, err := a.client.CreateRecord(ctx, searchhistory.Collection, entry.Record()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Destination set to %q. Ride booking is not available yet.\n", addr)
	return nil
}

func runHistory(ctx context.Context, a *app, _ []string) error {
	if _, err := a.requireLogin(); err != nil {
		return err
	}
	res, err := a.client.Collection(searchhistory.Collection).List(ctx, api.ListParams{Sort: "-created", PerPage: 50})
	if err != nil {
		return err
	}

	entries := make([]searchhistory.Entry, 0, len(res.Items))
	for _, rec := range res.Items {
		entries = append(entries, searchhistory.FromRecord(rec))
	}
	recent := searchhistory.Recent(entries, searchhistory.RecentLimit)
	if len(recent) == 0 {
		fmt.Fprintln(a.out, "No recent searches.")
		return nil
	}
	for i, e := range recent {
		fmt.Fprintf(a.out, "%d. %s\n", i+1, e.Address)
	}
	return nil
}

func runRate(ctx context.Context, a *app, args []string) error {
	me, err := a.requireLogin()
	if err != nil {
		return err
	}
	fs := newFlags("rate")
	ride := fs.String("ride", "", "ride id")
	user := fs.String("user", "", "rated user id")
	score := fs.Float64("score", -1, "0 to 5")
	comment := fs.String("comment", "", "optional comment")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *ride == "" || *user == "" || *score < 0 {
		return usageErr("rate -ride R -user U -score N [-comment C]")
	}

	r := ratings.Rating{RideID: *ride, RatedBy: me.ID(), RatedUser: *user, Score: *score, Comment: *comment}
	rec, err := a.client.CreateRecord(ctx, ratings.Collection, r.Record())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thanks! Rating %s saved.\n", rec.ID())
	return nil
}

func runRide(_ context.Context, a *app, _ []string) error {
	fmt.Fprintln(a.out, "Ride booking is coming soon.")
	return nil
}

func readFile(path string) (api.File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return api.File{}, usageErr("cannot read %s", path)
	}
	return api.File{Name: filepath.Base(path), Content: b}, nil
}
