/*
Package ine is a client for the INE Tempus3 JSON service
(https://servicios.ine.es/wstempus/js/{ES|EN}/{function}/{input}).

A Client issues one synchronous GET per call. Series queries are built from a
Query, encoded by Encode and decoded by DecodeSeries:

	c, err := ine.NewClient(ine.WithLanguage(ine.English))
	if err != nil {
		return err
	}
	res, err := c.GetSeries(ctx, "IPC206449", ine.Query{Date: ine.Since("20000101"), Last: 12})

Failures are reported as *TransportError, *DecodeError or *MalformedResponse,
and never retried.
*/
package ine
