package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/chrono"
	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"
	"github.com/Herbstein/iracing-driver-data-dump/internal/iracing"
	"github.com/Herbstein/iracing-driver-data-dump/internal/license"
	"github.com/Herbstein/iracing-driver-data-dump/internal/report"

	"github.com/stretchr/testify/require"
	"github.com/tcnksm/go-input"
	"golang.org/x/time/rate"
)

const (
	testEmail    = "driver@example.com"
	testPassword = "hunter2"
)

type scriptedPrompter struct {
	t       testing.TB
	answers map[string]string
	asked   []string
}

func (p *scriptedPrompter) answer(label string) (string, error) {
	p.asked = append(p.asked, label)
	answer, ok := p.answers[label]
	if !ok {
		p.t.Fatalf("unexpected prompt %q", label)
	}
	return answer, nil
}

func (p *scriptedPrompter) Prompt(label string) (string, error) {
	return p.answer(label)
}

func (p *scriptedPrompter) PromptSecret(label string) (string, error) {
	return p.answer(label)
}

func writeFile(t testing.TB, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestResolveCredentials(t *testing.T) {
	testCases := []struct {
		name     string
		config   string
		local    string
		answers  map[string]string
		expected Credentials
		asked    []string
	}{
		{
			name:     "config only",
			config:   `{auth: {email: "a@b.c", password: "pw"}}`,
			expected: Credentials{Email: "a@b.c", Password: "pw"},
		},
		{
			name:     "password from prompt",
			config:   `{auth: {email: "a@b.c"}}`,
			answers:  map[string]string{"Password": " pw \n"},
			expected: Credentials{Email: "a@b.c", Password: "pw"},
			asked:    []string{"Password"},
		},
		{
			name:     "no config",
			answers:  map[string]string{"Email": "a@b.c\n", "Password": "pw\n"},
			expected: Credentials{Email: "a@b.c", Password: "pw"},
			asked:    []string{"Email", "Password"},
		},
		{
			name:     "local override",
			config:   `{auth: {email: "a@b.c", password: "old"}}`,
			local:    `{auth: {password: "new"}}`,
			expected: Credentials{Email: "a@b.c", Password: "new"},
		},
	}

	for _, test := range testCases {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.json5")
		if test.config != "" {
			writeFile(t, path, test.config)
		}
		if test.local != "" {
			writeFile(t, filepath.Join(dir, "config.local.json5"), test.local)
		}

		p := &scriptedPrompter{t: t, answers: test.answers}
		creds, err := resolveCredentials(path, p, &telemetry.Recorder{})
		require.NoError(t, err, test.name)
		require.Equal(t, test.expected, creds, test.name)
		require.Equal(t, test.asked, p.asked, test.name)
	}
}

func TestResolveCredentialsRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	p := &scriptedPrompter{t: t, answers: map[string]string{"Email": "\n", "Password": "pw"}}

	_, err := resolveCredentials(path, p, &telemetry.Recorder{})
	require.ErrorContains(t, err, "email is required")
}

func TestResolveCredentialsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	writeFile(t, path, `{auth: `)

	_, err := resolveCredentials(path, &scriptedPrompter{t: t}, &telemetry.Recorder{})
	require.ErrorContains(t, err, "read config")
}

func TestInputPrompter(t *testing.T) {
	var out bytes.Buffer
	p := inputPrompter{
		ui: &input.UI{
			Writer: &out,
			Reader: strings.NewReader("a@b.c\nsecret\n"),
		},
	}

	email, err := p.Prompt("Email")
	require.NoError(t, err)
	require.Equal(t, "a@b.c", strings.TrimSpace(email))

	password, err := p.PromptSecret("Password")
	require.NoError(t, err)
	require.Equal(t, "secret", strings.TrimSpace(password))

	require.Contains(t, out.String(), "Email")
	require.Contains(t, out.String(), "Password")

	// input is exhausted, an empty answer is not accepted
	_, err = p.Prompt("Email")
	require.Error(t, err)
}

// fakeMembersApi serves a login endpoint and the member lookup, `members` is
// keyed by customer id.
func fakeMembersApi(t testing.TB, members map[uint32]iracing.Member) (*httptest.Server, *atomic.Int64) {
	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil || body.Password != iracing.HashCredentials(testPassword, testEmail) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "authtoken_members", Value: "ok", Path: "/"})
		fmt.Fprint(w, `{}`)
	})

	var server *httptest.Server
	mux.HandleFunc("/data/member/get/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("authtoken_members"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"link": %q}`, server.URL+"/payload")
	})
	mux.HandleFunc("/payload", func(w http.ResponseWriter, r *http.Request) {
		found := []iracing.Member{}
		for _, id := range []uint32{101, 202, 303} {
			if m, ok := members[id]; ok {
				found = append(found, m)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"members": found})
	})

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func testOptions(t testing.TB, server *httptest.Server, discipline license.Discipline) (reportOptions, *bytes.Buffer) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json5")
	writeFile(t, configPath, fmt.Sprintf(`{auth: {email: %q, password: %q}}`, testEmail, testPassword))

	var stdout bytes.Buffer
	return reportOptions{
		Discipline:  discipline,
		Missing:     license.MissingFail,
		DriversPath: filepath.Join(dir, "drivers.csv"),
		ConfigPath:  configPath,
		Client: iracing.ClientOptions{
			BaseUrl:           server.URL + "/",
			RequestsPerSecond: rate.Inf,
		},
		Stdout:    &stdout,
		Prompter:  &scriptedPrompter{t: t},
		Clock:     chrono.FixedImpl{At: time.Unix(1700000000, 0)},
		Telemetry: &telemetry.Recorder{},
	}, &stdout
}

var member101 = iracing.Member{
	CustId:      101,
	DisplayName: "A",
	Licenses: []iracing.License{
		{Category: "road", IRating: 1500, GroupName: "Class B", SafetyRating: 3.21},
	},
}

func TestRunReport(t *testing.T) {
	server, _ := fakeMembersApi(t, map[uint32]iracing.Member{101: member101})
	opts, stdout := testOptions(t, server, license.Road)
	writeFile(t, opts.DriversPath, "id\n101\n202\n303\n")

	exportPath, err := runReport(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(filepath.Dir(opts.DriversPath), "drivers-1700000000.csv"), exportPath)

	contents, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Equal(t, "id,name,iRating,license,SR\n101,A,1500,Class B,3.21\n", string(contents))

	require.Contains(t, stdout.String(), "Class B")
	require.Contains(t, stdout.String(), "iRating")

	// one member came back for three ids
	recorder := opts.Telemetry.(*telemetry.Recorder)
	require.Len(t, recorder.Reports(telemetry.ReportKindWarning), 1)

	var loggedIn []telemetry.Report
	for _, r := range recorder.Reports(telemetry.ReportKindDebug) {
		if r.Id == "logged in" {
			loggedIn = append(loggedIn, r)
		}
	}
	require.Len(t, loggedIn, 1)
	require.Equal(t, []any{"email", testEmail, "base_url", server.URL + "/"}, loggedIn[0].Params)
}

func TestRunReportMissingLicense(t *testing.T) {
	server, _ := fakeMembersApi(t, map[uint32]iracing.Member{101: member101})
	opts, stdout := testOptions(t, server, license.Oval)
	writeFile(t, opts.DriversPath, "id\n101\n")

	_, err := runReport(context.Background(), opts)
	require.ErrorIs(t, err, license.ErrMissingLicense)
	require.Empty(t, stdout.String())

	_, err = os.Stat(report.ExportPath(opts.DriversPath, opts.Clock.Now()))
	require.True(t, os.IsNotExist(err))
}

func TestRunReportZeroPolicy(t *testing.T) {
	server, _ := fakeMembersApi(t, map[uint32]iracing.Member{101: member101})
	opts, _ := testOptions(t, server, license.Oval)
	opts.Missing = license.MissingZero
	writeFile(t, opts.DriversPath, "id\n101\n")

	exportPath, err := runReport(context.Background(), opts)
	require.NoError(t, err)

	contents, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Equal(t, "id,name,iRating,license,SR\n101,A,0,,0\n", string(contents))
}

func TestRunReportNoDrivers(t *testing.T) {
	server, requests := fakeMembersApi(t, nil)
	opts, _ := testOptions(t, server, license.Road)
	writeFile(t, opts.DriversPath, "id\n")

	exportPath, err := runReport(context.Background(), opts)
	require.NoError(t, err)
	require.Zero(t, requests.Load())

	contents, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Equal(t, "id,name,iRating,license,SR\n", string(contents))
}

func TestRunReportMissingDriversFile(t *testing.T) {
	server, requests := fakeMembersApi(t, nil)
	opts, _ := testOptions(t, server, license.Road)

	_, err := runReport(context.Background(), opts)
	require.True(t, os.IsNotExist(err))
	require.Zero(t, requests.Load())
}

func TestRunReportBadCredentials(t *testing.T) {
	server, _ := fakeMembersApi(t, nil)
	opts, _ := testOptions(t, server, license.Road)
	writeFile(t, opts.ConfigPath, `{auth: {email: "driver@example.com", password: "wrong"}}`)
	writeFile(t, opts.DriversPath, "id\n101\n")

	_, err := runReport(context.Background(), opts)
	var statusErr *iracing.HttpStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}
