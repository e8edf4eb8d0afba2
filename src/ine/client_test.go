package ine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDoer records requests and replies with a canned response.
type fakeDoer struct {
	requests []*http.Request
	status   int
	body     string
	err      error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func newTestClient(t *testing.T, doer Doer, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(append([]Option{WithHTTPClient(doer)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, Spanish, c.Language())
	assert.Equal(t, "https://servicios.ine.es/wstempus/js/ES", c.BaseURL())
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := NewClient(WithLanguage("FR"))
	assert.ErrorIs(t, err, ErrInvalidLanguage)

	_, err = NewClient(WithBaseURL("not a url"))
	assert.Error(t, err)
}

func TestGetSeries_RangeFromStart(t *testing.T) {
	doer := &fakeDoer{body: `{"Data":[{"Fecha":946684800000,"Valor":100.0},{"Fecha":949363200000,"Valor":100.5}]}`}
	c := newTestClient(t, doer)

	res, err := c.GetSeries(context.Background(), "IPC206449", Query{Date: DateRange{Start: "20000101"}})
	require.NoError(t, err)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/wstempus/js/ES/DATOS_SERIE/IPC206449", req.URL.Path)
	assert.Equal(t, url.Values{"date": {"20000101:"}}, req.URL.Query())
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.NotEmpty(t, req.Header.Get("User-Agent"))

	require.Equal(t, 2, res.Len())
	assert.Equal(t, int64(946684800000), res.Records[0].Timestamp.UnixMilli())
	assert.Equal(t, 100.0, res.Records[0].Value)
	assert.Equal(t, int64(949363200000), res.Records[1].Timestamp.UnixMilli())
	assert.Equal(t, 100.5, res.Records[1].Value)
}

func TestGetSeries_GeoAndLast(t *testing.T) {
	doer := &fakeDoer{body: `{"Data":[]}`}
	c := newTestClient(t, doer)

	_, err := c.GetSeries(context.Background(), "30024", Query{Geo: GeoOn, Last: 5})
	require.NoError(t, err)
	require.Len(t, doer.requests, 1)
	assert.Equal(t, url.Values{"geo": {"1"}, "last": {"5"}}, doer.requests[0].URL.Query())
}

func TestGetSeries_InvalidQueryDoesNotCallService(t *testing.T) {
	doer := &fakeDoer{body: `{"Data":[]}`}
	c := newTestClient(t, doer)

	_, err := c.GetSeries(context.Background(), "IPC206449", Query{Last: -3})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = c.GetSeries(context.Background(), "  ", Query{})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	assert.Empty(t, doer.requests)
}

func TestGetSeries_MalformedPayload(t *testing.T) {
	doer := &fakeDoer{body: `{"Data":[{"Fecha":946684800000}]}`}
	c := newTestClient(t, doer)

	_, err := c.GetSeries(context.Background(), "IPC206449", Query{})
	var mr *MalformedResponse
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 0, mr.Index)
	assert.Equal(t, "Valor", mr.Field)
}

func TestSetLanguage_AffectsOnlyLaterCalls(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/wstempus/js/ES/") {
			io.WriteString(w, `{"Nombre":"Índice general","Data":[{"Fecha":946684800000,"Valor":1}]}`)
			return
		}
		io.WriteString(w, `{"Nombre":"General index","Data":[{"Fecha":946684800000,"Valor":1}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(WithBaseURL(srv.URL+"/wstempus/js"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	first, err := c.GetSeries(context.Background(), "IPC206449", Query{})
	require.NoError(t, err)

	require.NoError(t, c.SetLanguage(English))
	assert.Equal(t, srv.URL+"/wstempus/js/EN", c.BaseURL())

	second, err := c.GetSeries(context.Background(), "IPC206449", Query{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/wstempus/js/ES/DATOS_SERIE/IPC206449", "/wstempus/js/EN/DATOS_SERIE/IPC206449"}, paths)
	assert.Equal(t, "Índice general", first.Name)
	assert.Equal(t, "General index", second.Name)
	assert.Equal(t, first.Records, second.Records)
}

func TestSetLanguage_Invalid(t *testing.T) {
	c := newTestClient(t, &fakeDoer{})
	err := c.SetLanguage("DE")
	assert.ErrorIs(t, err, ErrInvalidLanguage)
	assert.Equal(t, Spanish, c.Language())
}

func TestInvoke_NonOKStatus(t *testing.T) {
	doer := &fakeDoer{status: http.StatusServiceUnavailable, body: "maintenance"}
	c := newTestClient(t, doer)

	_, err := c.Invoke(context.Background(), FuncOperacionesDisponibles, nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, "maintenance", te.Body)
	assert.Contains(t, te.Error(), "503")
}

func TestInvoke_NetworkFailure(t *testing.T) {
	netErr := errors.New("connection refused")
	c := newTestClient(t, &fakeDoer{err: netErr})

	_, err := c.Invoke(context.Background(), FuncOperacionesDisponibles, nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.ErrorIs(t, err, netErr)
}

func TestInvoke_InvalidJSON(t *testing.T) {
	c := newTestClient(t, &fakeDoer{body: "<html>oops</html>"})

	_, err := c.Invoke(context.Background(), FuncOperacionesDisponibles, nil)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.URL, FuncOperacionesDisponibles)
}

func TestInvoke_ReturnsBodyUnmodified(t *testing.T) {
	body := `{"b": 2, "a": [1, 2.50, "x"]}`
	doer := &fakeDoer{body: body}
	c := newTestClient(t, doer)

	params := url.Values{"det": {"2"}, "tip": {"A"}}
	got, err := c.Invoke(context.Background(), "OPERACION/IPC", params)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.Equal(t, params, doer.requests[0].URL.Query())
	assert.Equal(t, "/wstempus/js/ES/OPERACION/IPC", doer.requests[0].URL.Path)
}

func TestInvoke_RateLimitHonoursContext(t *testing.T) {
	doer := &fakeDoer{body: `[]`}
	c := newTestClient(t, doer, WithRateLimit(0.001, 1))

	_, err := c.Invoke(context.Background(), FuncOperacionesDisponibles, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Invoke(ctx, FuncOperacionesDisponibles, nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Len(t, doer.requests, 1)
}

func TestGetFunctions(t *testing.T) {
	doer := &fakeDoer{body: `[{"Id":25,"Cod_IOE":"30138","Nombre":"Índice de Precios de Consumo (IPC)","Codigo":"IPC"},{"Id":22,"Nombre":"Encuesta de Población Activa","Codigo":"EPA","Url":"x"}]`}
	c := newTestClient(t, doer)

	table, err := c.GetFunctions(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/wstempus/js/ES/OPERACIONES_DISPONIBLES", doer.requests[0].URL.Path)
	assert.Equal(t, []string{"Id", "Cod_IOE", "Nombre", "Codigo", "Url"}, table.Columns)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, KindNumber, table.Kind("Id"))
	assert.Equal(t, KindString, table.Kind("Codigo"))
}

func TestGetInput(t *testing.T) {
	doer := &fakeDoer{body: `{"Id":25,"Codigo":"IPC"}`}
	c := newTestClient(t, doer)

	v, err := c.GetInput(context.Background(), "/OPERACION/IPC/", url.Values{"det": {"1"}})
	require.NoError(t, err)

	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "IPC", obj["Codigo"])
	assert.Equal(t, json.Number("25"), obj["Id"])
	assert.Equal(t, "/wstempus/js/ES/OPERACION/IPC", doer.requests[0].URL.Path)
	assert.Equal(t, "1", doer.requests[0].URL.Query().Get("det"))

	_, err = c.GetInput(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestGetIPC_DefaultsToSince2000(t *testing.T) {
	doer := &fakeDoer{body: `{"Data":[]}`}
	c := newTestClient(t, doer)

	_, err := c.GetIPC(context.Background(), Query{Last: 2})
	require.NoError(t, err)
	assert.Equal(t, "/wstempus/js/ES/DATOS_SERIE/IPC206449", doer.requests[0].URL.Path)
	assert.Equal(t, url.Values{"date": {"20000101:"}, "last": {"2"}}, doer.requests[0].URL.Query())

	_, err = c.GetCNTR2010(context.Background(), Query{Date: Date("20200101")})
	require.NoError(t, err)
	assert.Equal(t, "/wstempus/js/ES/DATOS_SERIE/30024", doer.requests[1].URL.Path)
	assert.Equal(t, url.Values{"date": {"20200101"}}, doer.requests[1].URL.Query())
}

func TestGetTables_NotImplemented(t *testing.T) {
	doer := &fakeDoer{body: `[]`}
	c := newTestClient(t, doer)

	table, err := c.GetTables(context.Background())
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Empty(t, doer.requests)
}
