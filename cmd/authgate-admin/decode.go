package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/thalysonbl/authgate/internal/adapters/jwtclaims"
	domainauth "github.com/thalysonbl/authgate/internal/domain/auth"
)

type decodeOptions struct {
	Token       string
	Permissions string
	Roles       string
	RawJSON     bool
}

func parseDecodeOptions(args []string) (decodeOptions, error) {
	fs := flag.NewFlagSet("decode-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts decodeOptions
	fs.StringVar(&opts.Token, "token", "", "Access token to decode (reads stdin when empty)")
	fs.StringVar(&opts.Permissions, "permissions", "", "Comma-separated permissions that must all be held")
	fs.StringVar(&opts.Roles, "roles", "", "Comma-separated roles of which one must be held")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return decodeOptions{}, err
	}
	return opts, nil
}

func runDecodeToken(ctx *commandContext, args []string) error {
	opts, err := parseDecodeOptions(args)
	if err != nil {
		return err
	}
	if opts.Token == "" {
		if opts.Token, err = readToken(os.Stdin); err != nil {
			return err
		}
	}
	return decodeToken(ctx.Out, opts)
}

func readToken(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return "", errors.New("no token given: pass --token or pipe one on stdin")
	}
	return strings.TrimSpace(sc.Text()), nil
}

type decodeResult struct {
	Subject     string                  `json:"subject"`
	Email       string                  `json:"email,omitempty"`
	Permissions []string                `json:"permissions"`
	Roles       []string                `json:"roles"`
	ExpiresAt   *time.Time              `json:"expiresAt,omitempty"`
	Requirement *domainauth.Requirement `json:"requirement,omitempty"`
	Allowed     *bool                   `json:"allowed,omitempty"`
}

func decodeToken(w io.Writer, opts decodeOptions) error {
	claims, err := jwtclaims.Decoder{}.Decode(opts.Token)
	if err != nil {
		return err
	}

	res := decodeResult{
		Subject:     claims.Subject,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		Roles:       claims.Roles,
	}
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt.UTC()
		res.ExpiresAt = &exp
	}
	if req := requirementFromFlags(opts.Permissions, opts.Roles); req != nil {
		allowed := domainauth.Evaluate(claims, *req)
		res.Requirement = req
		res.Allowed = &allowed
	}

	if opts.RawJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printDecodeResult(w, res)
}

func printDecodeResult(w io.Writer, res decodeResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "Claim\tValue"); err != nil {
		return fmt.Errorf("write claims header: %w", err)
	}
	rows := [][2]string{
		{"Subject", res.Subject},
		{"Email", res.Email},
		{"Permissions", strings.Join(res.Permissions, ", ")},
		{"Roles", strings.Join(res.Roles, ", ")},
	}
	if res.ExpiresAt != nil {
		rows = append(rows, [2]string{"Expires", res.ExpiresAt.Format(time.RFC3339)})
	}
	if res.Allowed != nil {
		rows = append(rows, [2]string{"Allowed", fmt.Sprintf("%t", *res.Allowed)})
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return fmt.Errorf("write claim %q: %w", row[0], err)
		}
	}
	return tw.Flush()
}

// requirementFromFlags returns nil when neither list was given.
func requirementFromFlags(perms, roles string) *domainauth.Requirement {
	p, r := splitList(perms), splitList(roles)
	if p == nil && r == nil {
		return nil
	}
	return &domainauth.Requirement{Permissions: p, Roles: r}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
