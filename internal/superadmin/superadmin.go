// internal/superadmin/superadmin.go
//
// Center provisioning on the root API.
//
// Context
// -------
// Only a logged-in superadmin may list or add centers.  Every call checks
// the superadmin token first and fails with ErrNoToken without touching
// the network when it is absent.  The client attaches the bearer and CSRF
// headers; add-center lives at /api/add-center/, outside the superadmin
// path fragments, so it forces superadmin scope explicitly.
//
// List endpoints have drifted between a bare array, a DRF page
// ({count,next,previous,results}), {results:{data}}, and {data}.  All four
// are accepted.
package superadmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
)

// ErrNoToken is returned before any request when no superadmin is logged in.
var ErrNoToken = errors.New("No super-admin-token found.")

// Governorate is a first-level region.
type Governorate struct {
	ID    int               `json:"id"`
	Label string            `json:"label"`
	Code  client.FlexString `json:"code"`
}

// Delegation is a second-level region inside a governorate.
type Delegation struct {
	ID          int               `json:"id"`
	Label       string            `json:"label"`
	Code        client.FlexString `json:"code"`
	Governorate int               `json:"governorate"`
}

// Center is one row of the centers list.
type Center struct {
	ID           int               `json:"id"`
	SubDomain    string            `json:"sub_domain"`
	Label        string            `json:"label"`
	Tel          string            `json:"tel"`
	Mail         string            `json:"mail"`
	Adresse      string            `json:"adresse"`
	TypeCenter   string            `json:"type_center"`
	CodeTypeHemo string            `json:"code_type_hemo"`
	NameTypeHemo string            `json:"name_type_hemo"`
	CenterCode   client.FlexString `json:"center_code"`
	Governorate  *Governorate      `json:"governorate"`
	Delegation   *Delegation       `json:"delegation"`
}

// Page is one page of centers.  Count, Next, and Previous are zero when
// the backend did not paginate.
type Page struct {
	Centers  []Center `json:"centers"`
	Count    int      `json:"count"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
}

// Filter narrows the centers list.  Zero fields are omitted.
type Filter struct {
	Label         string
	GovernorateID int
	DelegationID  int
	Page          int
	PageSize      int
}

func (f Filter) values() url.Values {
	v := url.Values{}
	if f.Label != "" {
		v.Set("label", f.Label)
	}
	setInt := func(k string, n int) {
		if n > 0 {
			v.Set(k, strconv.Itoa(n))
		}
	}
	setInt("governorate_id", f.GovernorateID)
	setInt("delegation_id", f.DelegationID)
	setInt("page", f.Page)
	setInt("page_size", f.PageSize)
	return v
}

// NewCenter is the add-center payload.
type NewCenter struct {
	SubDomain    string `json:"sub_domain"               validate:"required,max=63,hostname_rfc1123,excludesall=."`
	Label        string `json:"label"                    validate:"required,max=255"`
	Tel          string `json:"tel,omitempty"            validate:"omitempty,max=20"`
	Mail         string `json:"mail,omitempty"           validate:"omitempty,email"`
	Adresse      string `json:"adresse,omitempty"        validate:"omitempty,max=255"`
	Governorate  *int   `json:"governorate"              validate:"omitempty,gt=0"`
	Delegation   *int   `json:"delegation"               validate:"omitempty,gt=0"`
	TypeCenter   string `json:"type_center"              validate:"required,oneof=CIRCONSCRIPTION REGIONAL UNIVERSITY BASIC PRIVATE"`
	CodeTypeHemo string `json:"code_type_hemo,omitempty" validate:"omitempty,oneof=MD2200 UNITE UNITEP"`
	NameTypeHemo string `json:"name_type_hemo,omitempty" validate:"omitempty,oneof='SERVICE HEMODIALYSE' 'UNITE HEMODIALYSE' 'UNITE HEMODIALYSE PEDIATRIQUE'"`
	CenterCode   *int   `json:"center_code"              validate:"omitempty,gte=0"`
}

// Created is the add-center acknowledgement.
type Created struct {
	Message   string `json:"success"`
	CenterID  int    `json:"center_id"`
	SubDomain string `json:"sub_domain"`
}

var (
	validate      = validator.New()
	newCenterType = reflect.TypeOf(NewCenter{})
)

// Service talks to the root API as the logged-in superadmin.
type Service struct {
	client *client.Client
	base   string
}

// NewService binds c to cfg's root API.
func NewService(c *client.Client, cfg tenant.Config) *Service {
	return &Service{client: c, base: tenant.StripWWW(cfg.RootAPIBaseURL)}
}

func (s *Service) requireToken(ctx context.Context) error {
	if session.Lookup(ctx, s.client.Store(), session.KeySuperAdminToken) == "" {
		return ErrNoToken
	}
	return nil
}

// Centers lists centers matching f.
func (s *Service) Centers(ctx context.Context, f Filter) (Page, error) {
	if err := s.requireToken(ctx); err != nil {
		return Page{}, err
	}
	resp, err := s.client.Do(ctx, client.Request{URL: s.base + "centers/", Query: f.values()}, nil)
	if err != nil {
		return Page{}, wrap("Failed to fetch centers.", err)
	}

	var p Page
	if err := decodeList(resp.Body, &p.Centers); err != nil {
		return Page{}, err
	}
	p.Count, p.Next, p.Previous = pageInfo(resp.Body)
	if p.Count == 0 {
		p.Count = len(p.Centers)
	}
	zap.L().Debug("centers listed", zap.Int("count", p.Count), zap.String("label", f.Label))
	return p, nil
}

// Governorates lists every governorate.
func (s *Service) Governorates(ctx context.Context) ([]Governorate, error) {
	if err := s.requireToken(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.Do(ctx, client.Request{URL: s.base + "governorates/"}, nil)
	if err != nil {
		return nil, wrap("Failed to fetch governorates.", err)
	}
	var out []Governorate
	return out, decodeList(resp.Body, &out)
}

// Delegations lists delegations, restricted to governorate when it is
// positive.
func (s *Service) Delegations(ctx context.Context, governorate int) ([]Delegation, error) {
	if err := s.requireToken(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.Do(ctx, client.Request{URL: s.base + "delegations/"}, nil)
	if err != nil {
		return nil, wrap("Failed to fetch delegations.", err)
	}
	var all []Delegation
	if err := decodeList(resp.Body, &all); err != nil {
		return nil, err
	}
	if governorate <= 0 {
		return all, nil
	}
	out := all[:0]
	for _, d := range all {
		if d.Governorate == governorate {
			out = append(out, d)
		}
	}
	return out, nil
}

// AddCenter provisions a center.  Invalid input is reported as
// *client.APIError with Fields set and Status 0, matching what the backend
// returns for a rejected form.
func (s *Service) AddCenter(ctx context.Context, nc NewCenter) (Created, error) {
	if err := s.requireToken(ctx); err != nil {
		return Created{}, err
	}
	nc.SubDomain = strings.ToLower(strings.TrimSpace(nc.SubDomain))
	if err := validate.Struct(nc); err != nil {
		return Created{}, inputError(err)
	}

	var out Created
	_, err := s.client.Do(ctx, client.Request{
		Method:     http.MethodPost,
		URL:        s.base + "add-center/",
		Body:       nc,
		SuperAdmin: true,
	}, &out)
	if err != nil {
		return Created{}, wrap("Failed to add center.", err)
	}
	zap.L().Info("center added", zap.Int("id", out.CenterID), zap.String("sub_domain", out.SubDomain))
	return out, nil
}

func decodeList(body []byte, dst any) error {
	items, err := listItems(body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(items, dst); err != nil {
		return fmt.Errorf("superadmin: decode list: %w", err)
	}
	return nil
}

// wrap keeps err inspectable while putting a readable message first.
func wrap(def string, err error) error {
	if client.IsUnauthorized(err) {
		return err
	}
	return fmt.Errorf("%s: %w", client.MessageOr(err, def), err)
}

func inputError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string][]string, len(ves))
	for _, fe := range ves {
		name := jsonField(fe.StructField())
		fields[name] = append(fields[name], fe.Tag())
	}
	return &client.APIError{Message: "Form validation failed.", Fields: fields}
}

func jsonField(structField string) string {
	if f, ok := newCenterType.FieldByName(structField); ok {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	}
	return structField
}
