package superadmin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

type fixture struct {
	svc   *Service
	store *session.Memory
	nav   *nav.Memory
	hits  atomic.Int32
}

func newFixture(t *testing.T, h http.HandlerFunc, token string) *fixture {
	t.Helper()
	f := &fixture{store: session.NewMemory(), nav: nav.NewMemory(nav.SuperAdminDashboard)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	if token != "" {
		require.NoError(t, session.SetAll(context.Background(), f.store,
			[2]string{session.KeySuperAdminToken, token},
			[2]string{session.KeyIsSuperAdmin, "true"},
		))
	}
	c := client.New(f.store, f.nav, config.Client{Timeout: 5 * time.Second})
	f.svc = NewService(c, tenant.Config{IsRoot: true, RootAPIBaseURL: srv.URL + "/api/"})
	return f
}

func TestCenters_Envelopes(t *testing.T) {
	item := `{"id":7,"sub_domain":"cilo","label":"CILO","type_center":"PRIVATE","center_code":12,` +
		`"governorate":{"id":1,"label":"Tunis","code":"11"},"delegation":{"id":4,"label":"Bab Bhar","code":"1101","governorate":1}}`

	for name, body := range map[string]string{
		"array":        `[` + item + `]`,
		"results":      `{"count":1,"next":null,"previous":null,"results":[` + item + `]}`,
		"results.data": `{"results":{"data":[` + item + `]}}`,
		"data":         `{"success":true,"data":[` + item + `]}`,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}, "tok")

			p, err := f.svc.Centers(context.Background(), Filter{})

			require.NoError(t, err)
			require.Len(t, p.Centers, 1)
			assert.Equal(t, 1, p.Count)
			c := p.Centers[0]
			assert.Equal(t, "cilo", c.SubDomain)
			assert.Equal(t, client.FlexString("12"), c.CenterCode)
			require.NotNil(t, c.Governorate)
			assert.Equal(t, "Tunis", c.Governorate.Label)
			require.NotNil(t, c.Delegation)
			assert.Equal(t, 1, c.Delegation.Governorate)
		})
	}
}

func TestCenters_FilterAndHeaders(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/centers/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "cil", q.Get("label"))
		assert.Equal(t, "1", q.Get("governorate_id"))
		assert.Empty(t, q.Get("delegation_id"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("page_size"))
		w.Write([]byte(`{"count":11,"next":"http://x/api/centers/?page=3","previous":"http://x/api/centers/?page=1","results":[]}`))
	}, "tok")

	p, err := f.svc.Centers(context.Background(), Filter{Label: "cil", GovernorateID: 1, Page: 2, PageSize: 10})

	require.NoError(t, err)
	assert.Empty(t, p.Centers)
	assert.Equal(t, 11, p.Count)
	assert.Equal(t, "http://x/api/centers/?page=3", p.Next)
	assert.Equal(t, "http://x/api/centers/?page=1", p.Previous)
}

func TestCenters_UnknownEnvelope(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}, "tok")

	_, err := f.svc.Centers(context.Background(), Filter{})

	assert.ErrorIs(t, err, ErrEnvelope)
}

func TestNoTokenSkipsNetwork(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, "")
	ctx := context.Background()

	_, err := f.svc.Centers(ctx, Filter{})
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = f.svc.Governorates(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = f.svc.Delegations(ctx, 0)
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = f.svc.AddCenter(ctx, NewCenter{SubDomain: "x", Label: "X", TypeCenter: "BASIC"})
	assert.ErrorIs(t, err, ErrNoToken)

	assert.Equal(t, "No super-admin-token found.", ErrNoToken.Error())
	assert.Zero(t, f.hits.Load())
}

func TestGovernorates(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/governorates/", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":[{"id":1,"label":"Tunis","code":11},{"id":2,"label":"Ariana","code":"12"}]}`))
	}, "tok")

	gs, err := f.svc.Governorates(context.Background())

	require.NoError(t, err)
	require.Len(t, gs, 2)
	assert.Equal(t, client.FlexString("11"), gs[0].Code)
	assert.Equal(t, "Ariana", gs[1].Label)
}

func TestDelegations_FilteredByGovernorate(t *testing.T) {
	body := `[{"id":1,"label":"Bab Bhar","code":"1101","governorate":1},` +
		`{"id":2,"label":"Ariana Ville","code":"1201","governorate":2},` +
		`{"id":3,"label":"Carthage","code":"1102","governorate":1}]`
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/delegations/", r.URL.Path)
		w.Write([]byte(body))
	}, "tok")

	all, err := f.svc.Delegations(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tunis, err := f.svc.Delegations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tunis, 2)
	assert.Equal(t, "Carthage", tunis[1].Label)
}

func TestDelegations_BackendFailure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "tok")

	_, err := f.svc.Delegations(context.Background(), 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to fetch delegations.")
	assert.Equal(t, 500, client.StatusOf(err))
}

func TestAddCenter(t *testing.T) {
	var got map[string]any
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/add-center/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":"Center added successfully.","center_id":9,"sub_domain":"sfax"}`))
	}, "tok")

	gov, code := 3, 42
	out, err := f.svc.AddCenter(context.Background(), NewCenter{
		SubDomain:    " Sfax ",
		Label:        "Centre Sfax",
		Governorate:  &gov,
		TypeCenter:   "REGIONAL",
		CodeTypeHemo: "UNITE",
		NameTypeHemo: "UNITE HEMODIALYSE",
		CenterCode:   &code,
	})

	require.NoError(t, err)
	assert.Equal(t, Created{Message: "Center added successfully.", CenterID: 9, SubDomain: "sfax"}, out)
	assert.Equal(t, "sfax", got["sub_domain"])
	assert.EqualValues(t, 3, got["governorate"])
	assert.Nil(t, got["delegation"])
	assert.EqualValues(t, 42, got["center_code"])
}

func TestAddCenter_LocalValidation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, "tok")

	_, err := f.svc.AddCenter(context.Background(), NewCenter{
		SubDomain:  "bad.name",
		TypeCenter: "HOSPITAL",
		Mail:       "nope",
	})

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Fields, "sub_domain")
	assert.Contains(t, apiErr.Fields, "label")
	assert.Contains(t, apiErr.Fields, "type_center")
	assert.Contains(t, apiErr.Fields, "mail")
	assert.Zero(t, f.hits.Load())
}

func TestAddCenter_BackendFieldErrors(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Failed to add center.","errors":{"sub_domain":["Center with this sub domain already exists."]}}`))
	}, "tok")

	_, err := f.svc.AddCenter(context.Background(), NewCenter{SubDomain: "cilo", Label: "CILO", TypeCenter: "BASIC"})

	require.Error(t, err)
	assert.Equal(t, []string{"Center with this sub domain already exists."}, client.FieldsOf(err)["sub_domain"])
}

func TestUnauthorizedClearsSuperAdminOnly(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, "tok")
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, session.KeyTenantToken, "tenant"))

	_, err := f.svc.AddCenter(ctx, NewCenter{SubDomain: "x", Label: "X", TypeCenter: "BASIC"})

	assert.True(t, client.IsUnauthorized(err))
	assert.Empty(t, session.Lookup(ctx, f.store, session.KeySuperAdminToken))
	assert.Equal(t, "tenant", session.Lookup(ctx, f.store, session.KeyTenantToken))
	assert.Equal(t, nav.SuperAdminLogin, f.nav.Location())
}
