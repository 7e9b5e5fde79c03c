package rules

import (
	"fmt"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// Default returns the standard catalog in report order.
func Default() []scan.Rule {
	return []scan.Rule{
		// Dependency security
		jqueryVersion(),
		outdatedLibraries(),

		// Network security
		mixedContent(),
		hstsValidation(),
		webSocketSecurity(),

		// Data security
		cookieSecurity(),
		passwordFields(),
		passwordVisibility(),
		passwordAutocomplete(),

		// Header security
		cspHeader(),
		xssProtection(),
		referrerPolicy(),
		permissionsPolicy(),
		clickjackingProtection(),
		serverHeader(),

		// Content security
		sriValidation(),
		thirdPartyScripts(),

		// Document security
		documentStandards(),
		documentWriteUsage(),
		formActionSecurity(),

		// Data exfiltration
		hiddenDataCollection(),
		beaconTracking(),
		webSocketExfiltration(),
		localStorageSensitiveData(),
		sessionStorageSensitiveData(),
		browserFingerprinting(),
		backgroundDataExfiltration(),
	}
}

// Extended returns the opt-in rules appended after Default.
func Extended() []scan.Rule {
	return []scan.Rule{
		contentTypeOptions(),
		hstsConfiguration(),
		cspQuality(),
		trustedTypes(),
		crossOriginIsolation(),
		deprecatedHeaders(),
		informationDisclosure(),
		corsPolicy(),
		cachePolicy(),
		csrfProtection(),
		knownVulnerableLibrariesRule(),
	}
}

// Options select which rules a registry holds.
type Options struct {
	Extended bool     // Append the Extended group
	Disabled []string // Rule names to leave out
}

// NewRegistry composes the catalog selected by opts.
func NewRegistry(opts Options) (*scan.Registry, error) {
	groups := [][]scan.Rule{Default()}
	if opts.Extended {
		groups = append(groups, Extended())
	}
	reg, err := scan.Compose(groups...)
	if err != nil {
		return nil, fmt.Errorf("compose rule catalog: %w", err)
	}
	if len(opts.Disabled) == 0 {
		return reg, nil
	}
	reg, err = reg.Without(opts.Disabled...)
	if err != nil {
		return nil, fmt.Errorf("disable rules: %w", err)
	}
	return reg, nil
}
