// Package mtpapi implements the catalog client for the MTP webshop product
// feed, an Atom/OData endpoint protected by HTTP basic auth.
package mtpapi

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mtp/newsletter/internal/domain/catalog"
	"github.com/mtp/newsletter/internal/domain/shared"
)

const (
	// productFeedPath is the OData collection exposing the webshop products
	productFeedPath = "/SmartReportDataClass_mtpWebshopProducts"
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 50 * 1024 * 1024 // 50MB
	defaultTimeout  = 30 * time.Second
)

// Config contains the upstream connection settings
type Config struct {
	ServiceURL string
	Username   string
	Password   string
	Timeout    time.Duration
}

// Validate checks that the config is complete
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("mtpapi: service URL is required")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("mtpapi: username and password are required")
	}
	return nil
}

// Client fetches product records from the MTP feed. It performs a single
// fetch per call; the product cache owns the retry policy.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new MTP feed client with the given configuration
func NewClient(config *Config, log *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.Named("mtpapi"),
	}, nil
}

// FetchAll retrieves the complete product catalog. Transport failures map to
// shared.ErrNetwork, malformed or unexpected responses to shared.ErrUpstream.
func (c *Client) FetchAll(ctx context.Context) ([]catalog.ProductRecord, error) {
	url := strings.TrimRight(c.config.ServiceURL, "/") + productFeedPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building feed request: %v", shared.ErrNetwork, err)
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)
	req.Header.Set("Accept", "application/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching product feed: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: product feed returned status %d", shared.ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading feed response: %v", shared.ErrNetwork, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: parsing feed XML: %v", shared.ErrUpstream, err)
	}

	records := make([]catalog.ProductRecord, 0, len(feed.Entries))
	skipped := 0
	fetchedAt := time.Now()
	for _, entry := range feed.Entries {
		record, ok := entry.Content.Properties.toRecord(fetchedAt)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: product feed contained no usable entries", shared.ErrUpstream)
	}

	c.logger.Info("fetched product feed",
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
		zap.Duration("duration", time.Since(start)))

	return records, nil
}

// ---------------------------------------------------------------------------
// Feed document
// ---------------------------------------------------------------------------

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Content struct {
		Properties productProperties `xml:"properties"`
	} `xml:"content"`
}

// productProperties maps the d:* fields of one feed entry. Element names are
// matched by local name, so the d:/m: prefixes are irrelevant here.
type productProperties struct {
	ArticleNumber    string `xml:"Artikelnummer"`
	NameDE           string `xml:"Bezeichnung-Deutsch"`
	NameEN           string `xml:"Bezeichnung-Englisch"`
	Category         string `xml:"Artikelgruppe"`
	PriceDealer      string `xml:"dealer_price"`
	PriceRetailNet   string `xml:"retail_price_net"`
	PriceRetailVAT   string `xml:"retail_price_vat"`
	PriceRetailGross string `xml:"retail_price_gross"`
	DescriptionDE    string `xml:"Langtext-Deutsch"`
	DescriptionEN    string `xml:"Langtext-Englisch"`
	Artist           string `xml:"Künstler"`
	Label            string `xml:"Label"`
	Genre            string `xml:"Genre"`
	ReleaseDate      string `xml:"Veröffentlichungsdatum"`
	MainImageURL     string `xml:"Produktbild"`
	DetailImages     string `xml:"Detailbilder"`
	InventoryTotal   string `xml:"Gesamtlagerbestand"`
}

func (p *productProperties) toRecord(fetchedAt time.Time) (catalog.ProductRecord, bool) {
	articleNumber := strings.TrimSpace(p.ArticleNumber)
	if articleNumber == "" {
		return catalog.ProductRecord{}, false
	}

	record := catalog.ProductRecord{
		ArticleNumber:    articleNumber,
		NameDE:           p.NameDE,
		NameEN:           p.NameEN,
		Category:         p.Category,
		PriceDealer:      parseGermanPrice(p.PriceDealer),
		PriceRetailNet:   parseGermanPrice(p.PriceRetailNet),
		PriceRetailVAT:   parseGermanPrice(p.PriceRetailVAT),
		PriceRetailGross: parseGermanPrice(p.PriceRetailGross),
		DescriptionDE:    p.DescriptionDE,
		DescriptionEN:    p.DescriptionEN,
		Artist:           p.Artist,
		Label:            p.Label,
		Genre:            p.Genre,
		ReleaseDate:      p.ReleaseDate,
		MainImageURL:     p.MainImageURL,
		DetailImageURLs:  parseDetailImages(p.DetailImages),
		InventoryTotal:   parseInventory(p.InventoryTotal),
		LastUpdated:      fetchedAt,
	}
	return record, true
}

// parseGermanPrice converts feed values like "1.234,56" to a decimal.
// "0" and "0,00" mean the tier carries no price.
func parseGermanPrice(text string) *decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" || text == "0" || text == "0,00" {
		return nil
	}
	normalized := strings.ReplaceAll(text, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return nil
	}
	return &d
}

// parseDetailImages splits the space-separated, possibly quoted URL list of
// the Detailbilder field.
func parseDetailImages(raw string) []string {
	var urls []string
	for _, part := range strings.Fields(raw) {
		url := strings.Trim(part, `"`)
		if strings.HasPrefix(url, "http") {
			urls = append(urls, url)
		}
	}
	return urls
}

func parseInventory(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// Ensure Client implements the catalog client contract
var _ catalog.Client = (*Client)(nil)
