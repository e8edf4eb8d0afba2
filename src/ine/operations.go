package ine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Tempus3 function names. Most take an input after a slash, e.g. DATOS_SERIE/IPC206449.
const (
	FuncOperacionesDisponibles   = "OPERACIONES_DISPONIBLES"
	FuncOperacion                = "OPERACION"
	FuncVariables                = "VARIABLES"
	FuncVariablesOperacion       = "VARIABLES_OPERACION"
	FuncValoresVariable          = "VALORES_VARIABLE"
	FuncValoresVariableOperacion = "VALORES_VARIABLEOPERACION"
	FuncTablasOperacion          = "TABLAS_OPERACION"
	FuncGruposTabla              = "GRUPOS_TABLA"
	FuncSerie                    = "SERIE"
	FuncSeriesOperacion          = "SERIES_OPERACION"
	FuncPublicaciones            = "PUBLICACIONES"
	FuncPublicacionesOperacion   = "PUBLICACIONES_OPERACION"
	FuncDatosSerie               = "DATOS_SERIE"
	FuncDatosTabla               = "DATOS_TABLA"
)

// Well-known series.
const (
	SeriesIPC      = "IPC206449"
	SeriesCNTR2010 = "30024"

	// ipcDefaultStart is where GetIPC starts when the query has no date.
	ipcDefaultStart = "20000101"
)

// GetSeries fetches the observations of one series.
func (c *Client) GetSeries(ctx context.Context, series string, q Query) (*SeriesResult, error) {
	series = strings.TrimSpace(series)
	if series == "" {
		return nil, fmt.Errorf("%w: empty series code", ErrInvalidQuery)
	}
	params, err := Encode(q)
	if err != nil {
		return nil, err
	}

	body, err := c.Invoke(ctx, FuncDatosSerie+"/"+series, params)
	if err != nil {
		return nil, err
	}

	result, err := DecodeSeries(body)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", series, err)
	}
	c.log.Debug("Decoded series", "series", series, "records", result.Len(), "language", c.language)
	return result, nil
}

// GetIPC fetches the general consumer price index, from 2000 onward unless q says otherwise.
func (c *Client) GetIPC(ctx context.Context, q Query) (*SeriesResult, error) {
	if q.Date == nil {
		q.Date = Since(ipcDefaultStart)
	}
	return c.GetSeries(ctx, SeriesIPC, q)
}

// GetCNTR2010 fetches the national accounts series 30024 (base 2010).
func (c *Client) GetCNTR2010(ctx context.Context, q Query) (*SeriesResult, error) {
	return c.GetSeries(ctx, SeriesCNTR2010, q)
}

// GetFunctions lists the entries a function returns, e.g. the available
// operations. An empty function means FuncOperacionesDisponibles.
func (c *Client) GetFunctions(ctx context.Context, function string) (*Table, error) {
	function = strings.TrimSpace(function)
	if function == "" {
		function = FuncOperacionesDisponibles
	}
	body, err := c.Invoke(ctx, function, nil)
	if err != nil {
		return nil, err
	}
	table, err := DecodeTable(body)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", function, err)
	}
	return table, nil
}

// GetInput calls function/input paths such as "OPERACION/IPC" with arbitrary
// parameters and returns the parsed JSON. Numbers are json.Number.
func (c *Client) GetInput(ctx context.Context, input string, params url.Values) (any, error) {
	input = strings.Trim(strings.TrimSpace(input), "/")
	if input == "" {
		return nil, fmt.Errorf("%w: empty input path", ErrInvalidQuery)
	}
	body, err := c.Invoke(ctx, input, params)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{URL: c.URL(input, params), Err: err}
	}
	return v, nil
}

// GetTables is not supported and fails before any request is made.
func (c *Client) GetTables(ctx context.Context) (*Table, error) {
	return nil, fmt.Errorf("%w: table retrieval", ErrNotImplemented)
}
