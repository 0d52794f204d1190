package iracing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"

	"github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

const (
	fakeEmail      = "Driver@Example.com"
	fakePassword   = "hunter2"
	fakeCookieName = "authtoken_members"
)

// fakeApi imitates the parts of the iRacing member api the client uses.
type fakeApi struct {
	t      testing.TB
	server *httptest.Server
	// session is the cookie value handed out by a successful login
	session string

	mutex sync.Mutex
	// members served by the payload endpoint, keyed by customer id
	members map[uint32]Member
	// when non-zero, the respective endpoint replies with this status
	authStatus    int
	linkStatus    int
	payloadStatus int
	// when non-empty, the respective endpoint replies with this body
	linkBody    string
	payloadBody string
	// failBatch makes the n-th (1-indexed) member request fail with a 500
	failBatch int

	// paths of every request received, in order
	requests []string
	// the cust_ids of every member request, in order
	batches [][]uint32
}

func newFakeApi(t testing.TB) *fakeApi {
	session, err := random.String(24)
	if err != nil {
		t.Fatal(err)
	}
	api := &fakeApi{t: t, session: session, members: map[uint32]Member{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", api.handleAuth)
	mux.HandleFunc("/data/member/get/", api.handleMemberGet)
	mux.HandleFunc("/payload", api.handlePayload)

	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mutex.Lock()
		api.requests = append(api.requests, r.URL.Path)
		api.mutex.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeApi) options() ClientOptions {
	return ClientOptions{
		BaseUrl:           a.server.URL + "/",
		Telemetry:         &telemetry.Recorder{},
		RequestsPerSecond: rate.Inf,
	}
}

func (a *fakeApi) addMember(m Member) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.members[m.CustId] = m
}

func (a *fakeApi) requestLog() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *fakeApi) batchLog() [][]uint32 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([][]uint32(nil), a.batches...)
}

func (a *fakeApi) authorized(r *http.Request) bool {
	cookie, err := r.Cookie(fakeCookieName)
	return err == nil && cookie.Value == a.session
}

func (a *fakeApi) handleAuth(w http.ResponseWriter, r *http.Request) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if a.authStatus != 0 {
		w.WriteHeader(a.authStatus)
		return
	}

	var body loginRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if body.Email != fakeEmail || body.Password != HashCredentials(fakePassword, fakeEmail) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: fakeCookieName, Value: a.session, Path: "/"})
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"authcode":"abc","ssoCookieValue":"x"}`)
}

func (a *fakeApi) handleMemberGet(w http.ResponseWriter, r *http.Request) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var ids []uint32
	for _, raw := range strings.Split(r.URL.Query().Get("cust_ids"), ",") {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ids = append(ids, uint32(id))
	}
	if r.URL.Query().Get("include_licenses") != "true" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.batches = append(a.batches, ids)

	if a.failBatch == len(a.batches) {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if a.linkStatus != 0 {
		w.WriteHeader(a.linkStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if a.linkBody != "" {
		fmt.Fprint(w, a.linkBody)
		return
	}

	link := fmt.Sprintf("%s/payload?cust_ids=%s", a.server.URL, url.QueryEscape(r.URL.Query().Get("cust_ids")))
	err := json.NewEncoder(w).Encode(map[string]string{
		"link":    link,
		"expires": "2024-01-01T00:00:00Z",
	})
	if err != nil {
		a.t.Error(err)
	}
}

func (a *fakeApi) handlePayload(w http.ResponseWriter, r *http.Request) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.payloadStatus != 0 {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(a.payloadStatus)
		fmt.Fprint(w, `<html><head><title>Down for maintenance</title></head></html>`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if a.payloadBody != "" {
		fmt.Fprint(w, a.payloadBody)
		return
	}

	members := []Member{}
	for _, raw := range strings.Split(r.URL.Query().Get("cust_ids"), ",") {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		member, ok := a.members[uint32(id)]
		if !ok {
			continue
		}
		members = append(members, member)
	}

	err := json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"members": members,
	})
	if err != nil {
		a.t.Error(err)
	}
}
