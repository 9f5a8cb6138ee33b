package config

import (
	"fmt"
	"sort"
	"strings"

	"spotter/internal/port"
)

// StoreConfig describes how to reach and page through one retailer's flyer.
type StoreConfig struct {
	Key                 string
	Retailer            string
	FlyerURL            string
	CookieSelectors     []string
	CookieButtonTexts   []string
	IframeSelector      string
	NextButtonSelectors []string
	NextButtonTexts     []string
	PageLimit           int
}

// CaptureRequest returns the browser request for this store. An empty url
// keeps the preset flyer URL.
func (s StoreConfig) CaptureRequest(url, outputDir string) port.CaptureRequest {
	if url == "" {
		url = s.FlyerURL
	}
	return port.CaptureRequest{
		StoreKey:            s.Key,
		URL:                 url,
		CookieSelectors:     s.CookieSelectors,
		CookieButtonTexts:   s.CookieButtonTexts,
		IframeSelector:      s.IframeSelector,
		NextButtonSelectors: s.NextButtonSelectors,
		NextButtonTexts:     s.NextButtonTexts,
		PageLimit:           s.PageLimit,
		OutputDir:           outputDir,
	}
}

// defaultNextSelectors are tried after a store's own selectors.
var defaultNextSelectors = []string{
	`button.button--navigation[aria-label="Pagina successiva"]`,
	`button[aria-label*="successiva"]`,
	`button[aria-label*="next"]`,
	`button[class*="next"]`,
}

var stores = map[string]StoreConfig{
	"lidl": {
		Key:      "lidl",
		Retailer: "Lidl",
		FlyerURL: "https://www.lidl.it/c/volantino-lidl/s10018048",
		CookieSelectors: []string{
			"#onetrust-reject-all-handler",
			"button[id*='reject-all']",
			"button.ot-button-order-0",
		},
		CookieButtonTexts: []string{"continua senza", "rifiuta"},
		NextButtonSelectors: append([]string{
			"button.button--navigation.button--navigation-lidl",
		}, defaultNextSelectors...),
		PageLimit: 30,
	},
	"oasi_tigre": {
		Key:      "oasi_tigre",
		Retailer: "Oasi Tigre",
		FlyerURL: "https://www.calameo.com/read/001940002c37e14603a0d?view=scroll&page=1",
		CookieSelectors: []string{
			"button#onetrust-reject-all-handler",
		},
		CookieButtonTexts:   []string{"rifiuta tutto", "rifiuta", "continua senza"},
		NextButtonSelectors: defaultNextSelectors,
		PageLimit:           30,
	},
	"eurospin": {
		Key:      "eurospin",
		Retailer: "Eurospin",
		FlyerURL: "https://www.eurospin.it/volantino-store-eurospin/?codice_pv=467720",
		CookieSelectors: []string{
			"button.iubenda-cs-accept-btn",
			".iubenda-cs-accept-btn",
			"button.iubenda-cs-close-btn",
		},
		CookieButtonTexts: []string{"accetta tutto", "accetta"},
		IframeSelector:    "iframe[src*='smt-digitalflyer']",
		NextButtonSelectors: append([]string{
			"button[aria-label='Pagina successiva']",
			"button[aria-label='Avanti']",
			"button.next-button",
			".next-button",
		}, defaultNextSelectors...),
		NextButtonTexts: []string{"arrow_forward_ios", "chevron_right"},
		PageLimit:       3,
	},
}

// Store returns the preset for key.
func Store(key string) (StoreConfig, error) {
	s, ok := stores[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return StoreConfig{}, &ConfigurationError{
			Key:    "SPOTTER_STORE",
			Reason: fmt.Sprintf("unknown store %q (known: %s)", key, strings.Join(StoreKeys(), ", ")),
		}
	}
	return s, nil
}

// StoreKeys lists the known store presets in sorted order.
func StoreKeys() []string {
	keys := make([]string, 0, len(stores))
	for k := range stores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
