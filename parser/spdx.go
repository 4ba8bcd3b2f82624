package parser

import (
	"context"
	"fmt"
	"strings"
)

// spdxDocument is the shape of the SPDX license list JSON.
type spdxDocument struct {
	LicenseListVersion string        `json:"licenseListVersion"`
	Licenses           []spdxLicense `json:"licenses"`
}

type spdxLicense struct {
	Reference string `json:"reference"`
	LicenseID string `json:"licenseId"`
	Name      string `json:"name"`
}

// ParseSPDXLicenses parses the SPDX license register. Each license yields
// a preferred English label "<licenseId> : <name>", with the bare id
// (untagged) and the bare name (English) as alternative labels. The
// canonical URI is the reference URL stripped of a trailing ".html".
func ParseSPDXLicenses(ctx context.Context, vocabulary, url string, params Params) *Result {
	result, err := NewResult(vocabulary)
	if err != nil {
		return exitEarly(vocabulary, err)
	}

	var doc spdxDocument
	if err := fetchJSON(ctx, vocabulary, url, params, &doc); err != nil {
		result.Exit(err)
		return result
	}
	if doc.Licenses == nil {
		result.Exit(fmt.Errorf("no licenses key in response from %s", url))
		return result
	}

	for i, lic := range doc.Licenses {
		if lic.Reference == "" || lic.LicenseID == "" || lic.Name == "" {
			result.LogError(fmt.Errorf("license entry %d: missing reference, licenseId or name", i))
			continue
		}
		uri := strings.TrimSuffix(lic.Reference, ".html")
		result.AddLabel(uri, "en", lic.LicenseID+" : "+lic.Name)
		result.AddLabel(uri, nil, lic.LicenseID)
		result.AddLabel(uri, "en", lic.Name)
	}

	result.Validate()
	return result
}
