package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

// epsgURIPrefix is the canonical OGC namespace for EPSG reference systems.
const epsgURIPrefix = "http://www.opengis.net/def/crs/EPSG/0/"

// iogpPage is the paged JSON shape of the IOGP EPSG registry API.
type iogpPage struct {
	TotalResults *int         `json:"TotalResults"`
	Results      []iogpRecord `json:"Results"`
}

type iogpRecord struct {
	Name       string      `json:"Name"`
	Code       json.Number `json:"Code"`
	DataSource string      `json:"DataSource"`
}

// addEPSGLabels records the shared EPSG label conventions: preferred
// "EPSG <code> : <name>" plus "EPSG:<code>", the bare name and the bare
// code as alternative labels.
func addEPSGLabels(result *Result, uri, code, name string) {
	result.AddLabel(uri, nil, fmt.Sprintf("EPSG %s : %s", code, name))
	result.AddLabel(uri, nil, "EPSG:"+code)
	result.AddLabel(uri, nil, name)
	result.AddLabel(uri, nil, code)
}

// ParseIOGPEPSG parses the IOGP EPSG registry in two steps: a first query
// reads TotalResults, a second one requests every record in one page.
// Records whose DataSource is not "EPSG" are skipped silently; records
// missing Name or Code are logged and skipped.
func ParseIOGPEPSG(ctx context.Context, vocabulary, rawURL string, params Params) *Result {
	result, err := NewResult(vocabulary)
	if err != nil {
		return exitEarly(vocabulary, err)
	}

	var probe iogpPage
	if err := fetchJSON(ctx, vocabulary, rawURL, params, &probe); err != nil {
		result.Exit(err)
		return result
	}
	if probe.TotalResults == nil {
		result.Exit(fmt.Errorf("no TotalResults key in response from %s", rawURL))
		return result
	}

	pageURL, err := withQueryParam(rawURL, "pageSize", fmt.Sprintf("%d", *probe.TotalResults))
	if err != nil {
		result.Exit(err)
		return result
	}
	var page iogpPage
	if err := fetchJSON(ctx, vocabulary, pageURL, params, &page); err != nil {
		result.Exit(err)
		return result
	}

	for i, rec := range page.Results {
		if rec.DataSource != "EPSG" {
			continue
		}
		code := rec.Code.String()
		if rec.Name == "" || code == "" {
			result.LogError(fmt.Errorf("record %d: missing Name or Code", i))
			continue
		}
		addEPSGLabels(result, epsgURIPrefix+code, code, rec.Name)
	}

	result.Validate()
	return result
}

func withQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ogcIndex is the XML index of CRS URIs served by the OGC register.
type ogcIndex struct {
	Identifiers []string `xml:"identifier"`
}

// ogcCRS is the subset of a GML coordinate reference system document the
// parser needs.
type ogcCRS struct {
	Name       string `xml:"name"`
	Identifier struct {
		Value     string `xml:",chardata"`
		CodeSpace string `xml:"codeSpace,attr"`
	} `xml:"identifier"`
}

// ParseOGCEPSG parses the OGC EPSG register: an XML index of CRS URIs,
// then one XML document per CRS. Per-item network failures are logged and
// the item skipped; the optional limit parameter caps the number of
// fetched items.
func ParseOGCEPSG(ctx context.Context, vocabulary, rawURL string, params Params) *Result {
	result, err := NewResult(vocabulary)
	if err != nil {
		return exitEarly(vocabulary, err)
	}

	data, err := fetchBytes(ctx, vocabulary, rawURL, params, "application/xml")
	if err != nil {
		result.Exit(err)
		return result
	}
	var index ogcIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		result.Exit(fmt.Errorf("decode XML index from %s: %w", rawURL, err))
		return result
	}
	if len(index.Identifiers) == 0 {
		result.Exit(fmt.Errorf("empty CRS index at %s", rawURL))
		return result
	}

	limit := params.Int(ParamLimit)
	count := 0
	for _, crsURL := range index.Identifiers {
		crsURL = strings.TrimSpace(crsURL)
		if crsURL == "" {
			continue
		}
		if limit > 0 && count >= limit {
			break
		}
		count++

		body, err := fetchBytes(ctx, vocabulary, crsURL, params, "application/xml")
		if err != nil {
			result.LogError(fmt.Errorf("fetch CRS %s: %w", crsURL, err))
			continue
		}
		var crs ogcCRS
		if err := xml.Unmarshal(bytes.TrimSpace(body), &crs); err != nil {
			result.LogError(fmt.Errorf("decode CRS %s: %w", crsURL, err))
			continue
		}
		if crs.Name == "" || crs.Identifier.Value == "" {
			result.LogError(fmt.Errorf("CRS %s: missing name or identifier", crsURL))
			continue
		}
		code := lastPathSegment(crs.Identifier.Value)
		codeSpace := crs.Identifier.CodeSpace
		if codeSpace == "" {
			codeSpace = "EPSG"
		}
		uri := epsgURIPrefix + code
		result.AddLabel(uri, nil, fmt.Sprintf("%s %s : %s", codeSpace, code, crs.Name))
		result.AddLabel(uri, nil, codeSpace+":"+code)
		result.AddLabel(uri, nil, crs.Name)
		result.AddLabel(uri, nil, code)
	}

	result.Validate()
	return result
}

func lastPathSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		return s[i+1:]
	}
	return s
}
