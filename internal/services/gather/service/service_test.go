package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"leakhound/internal/modkit"
	"leakhound/internal/services/gather/domain"

	gh "leakhound/internal/adapters/github"
)

// fakeForge serves just enough of the hosting API for the gathering flows
func fakeForge(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/users/acme", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"acme","type":"Organization","name":"Acme Corp"}`))
	})
	mux.HandleFunc("/users/alice", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"alice","type":"User","name":"Alice"}`))
	})
	mux.HandleFunc("/users/bob", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"bob","type":"User"}`))
	})
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/orgs/acme/members", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"login":"alice"},{"login":"bob"},{"login":"ghost"}]`))
	})

	mux.HandleFunc("/users/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name":"app","full_name":"acme/app","default_branch":"main","owner":{"login":"acme"}},
			{"name":"mirror","full_name":"acme/mirror","fork":true,"owner":{"login":"acme"}}
		]`))
	})
	mux.HandleFunc("/users/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"dotfiles","full_name":"alice/dotfiles","owner":{"login":"alice"}}]`))
	})
	mux.HandleFunc("/users/bob/repos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	mux.HandleFunc("/repos/acme/app/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tree":[
			{"path":"config/database.yml","type":"blob","sha":"b1","size":420},
			{"path":"src","type":"tree","sha":"t1"}
		]}`))
	})
	mux.HandleFunc("/repos/alice/dotfiles/git/trees/master", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Git Repository is empty."}`))
	})

	return httptest.NewServer(mux)
}

func testSvc(t *testing.T, srv *httptest.Server) *Svc {
	t.Helper()
	client := gh.NewClient(gh.NewTokenPool([]string{"tok"}), gh.Options{BaseURL: srv.URL, Retries: 1})
	return New(modkit.Deps{}, client, Config{Workers: 3})
}

func TestGatherOwnersExpandsOrganizations(t *testing.T) {
	srv := fakeForge(t)
	defer srv.Close()
	svc := testSvc(t, srv)

	if err := svc.GatherOwners(context.Background(), []string{"acme", "ghost"}); err != nil {
		t.Fatalf("gather owners failed: %v", err)
	}

	owners := svc.Owners()
	logins := make([]string, 0, len(owners))
	for _, o := range owners {
		logins = append(logins, o.Login)
	}
	sort.Strings(logins)
	want := []string{"acme", "alice", "bob"}
	if len(logins) != len(want) {
		t.Fatalf("expected owners %v, got %v", want, logins)
	}
	for i := range want {
		if logins[i] != want[i] {
			t.Fatalf("expected owners %v, got %v", want, logins)
		}
	}
	if owners[0].Login != "acme" || owners[0].Kind != domain.KindOrganization {
		t.Fatalf("expected the org first in discovery order, got %+v", owners[0])
	}

	unknown := svc.UnknownLogins()
	if len(unknown) != 2 {
		t.Fatalf("expected ghost recorded twice (target and member), got %v", unknown)
	}
	for _, u := range unknown {
		if u != "ghost" {
			t.Fatalf("unexpected unknown login %q", u)
		}
	}
}

func TestGatherOwnersDedupes(t *testing.T) {
	srv := fakeForge(t)
	defer srv.Close()
	svc := testSvc(t, srv)

	// alice arrives as a direct target and again as an org member
	if err := svc.GatherOwners(context.Background(), []string{"alice", "acme", "alice"}); err != nil {
		t.Fatalf("gather owners failed: %v", err)
	}
	seen := map[string]int{}
	for _, o := range svc.Owners() {
		seen[o.Login]++
	}
	if seen["alice"] != 1 {
		t.Fatalf("expected alice gathered once, got %d", seen["alice"])
	}
}

func TestGatherRepositoriesCallbacks(t *testing.T) {
	srv := fakeForge(t)
	defer srv.Close()
	svc := testSvc(t, srv)

	if err := svc.GatherOwners(context.Background(), []string{"acme"}); err != nil {
		t.Fatalf("gather owners failed: %v", err)
	}

	var mu sync.Mutex
	done := map[string]int{}
	failed := map[string]bool{}
	err := svc.GatherRepositories(context.Background(),
		func(owner domain.Owner, repos []domain.Repository) {
			mu.Lock()
			done[owner.Login] = len(repos)
			mu.Unlock()
		},
		func(owner domain.Owner, err error) {
			mu.Lock()
			failed[owner.Login] = true
			mu.Unlock()
		},
	)
	if err != nil {
		t.Fatalf("gather repositories failed: %v", err)
	}

	if done["acme"] != 1 {
		t.Fatalf("expected acme's fork dropped, got %d repos", done["acme"])
	}
	if done["alice"] != 1 {
		t.Fatalf("expected 1 repo for alice, got %d", done["alice"])
	}
	if !failed["bob"] {
		t.Fatalf("expected bob's listing failure delivered to onErr")
	}
	if _, ok := done["bob"]; ok {
		t.Fatalf("failed owner must not reach onEach")
	}

	repos := svc.Repositories()
	if len(repos) != 2 {
		t.Fatalf("expected 2 gathered repositories, got %d", len(repos))
	}
	if got := svc.RepositoriesFor("acme"); len(got) != 1 || got[0].FullName != "acme/app" {
		t.Fatalf("unexpected acme repos %+v", got)
	}
	if got := svc.RepositoriesFor("bob"); len(got) != 0 {
		t.Fatalf("expected no repos recorded for failed owner, got %+v", got)
	}
}

func TestBlobsForRepository(t *testing.T) {
	srv := fakeForge(t)
	defer srv.Close()
	svc := testSvc(t, srv)

	if err := svc.GatherOwners(context.Background(), []string{"acme"}); err != nil {
		t.Fatalf("gather owners failed: %v", err)
	}
	if err := svc.GatherRepositories(context.Background(), nil, nil); err != nil {
		t.Fatalf("gather repositories failed: %v", err)
	}

	repo := svc.RepositoriesFor("acme")[0]
	blobs, err := svc.BlobsForRepository(context.Background(), repo)
	if err != nil {
		t.Fatalf("blobs failed: %v", err)
	}
	if len(blobs) != 1 || blobs[0].Path != "config/database.yml" {
		t.Fatalf("unexpected blobs %+v", blobs)
	}

	// empty repository reads as an empty listing
	empty := svc.RepositoriesFor("alice")[0]
	blobs, err = svc.BlobsForRepository(context.Background(), empty)
	if err != nil {
		t.Fatalf("empty repository must not error: %v", err)
	}
	if len(blobs) != 0 {
		t.Fatalf("expected no blobs, got %d", len(blobs))
	}

	if _, err := svc.BlobsForRepository(context.Background(), domain.Repository{FullName: "no/where"}); err == nil {
		t.Fatalf("expected error for ungathered repository")
	}
}

func TestBlobDerivedFields(t *testing.T) {
	cases := []struct {
		blob     domain.Blob
		filename string
		ext      string
		test     bool
		large    bool
	}{
		{domain.Blob{Path: "config/secrets.PEM", Size: 100}, "secrets.PEM", "PEM", false, false},
		{domain.Blob{Path: ".netrc", Size: 100}, ".netrc", "", false, false},
		{domain.Blob{Path: "spec/fixtures/key", Size: 200_000}, "key", "", true, true},
		{domain.Blob{Path: "Makefile", Size: 10}, "Makefile", "", false, false},
	}
	for _, tc := range cases {
		if got := tc.blob.Filename(); got != tc.filename {
			t.Fatalf("%s: filename %q, want %q", tc.blob.Path, got, tc.filename)
		}
		if got := tc.blob.Extension(); got != tc.ext {
			t.Fatalf("%s: extension %q, want %q", tc.blob.Path, got, tc.ext)
		}
		if got := tc.blob.IsTestRelated(); got != tc.test {
			t.Fatalf("%s: test related %v, want %v", tc.blob.Path, got, tc.test)
		}
		if got := tc.blob.IsLarge(); got != tc.large {
			t.Fatalf("%s: large %v, want %v", tc.blob.Path, got, tc.large)
		}
	}

	b := domain.Blob{Path: "config/database.yml"}
	if got := b.HTMLURL("https://github.com/acme/app", "main"); got != "https://github.com/acme/app/blob/main/config/database.yml" {
		t.Fatalf("unexpected html url %q", got)
	}
}
