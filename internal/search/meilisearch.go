package search

import (
	"real-estate-cms/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "properties",
	}
}

// PropertyDoc is the flattened search document. Region and agent names are
// denormalized in so free-text queries can match them.
type PropertyDoc struct {
	ID            string   `json:"id"`
	TitleEN       string   `json:"title_en"`
	TitleES       string   `json:"title_es,omitempty"`
	DescriptionEN string   `json:"description_en,omitempty"`
	DescriptionES string   `json:"description_es,omitempty"`
	Type          string   `json:"type"`
	ListingType   string   `json:"listing_type"`
	Status        string   `json:"status"`
	PriceSale     *int64   `json:"price_sale,omitempty"`
	PriceRent     *int64   `json:"price_rent,omitempty"`
	Bedrooms      int      `json:"bedrooms"`
	Bathrooms     int      `json:"bathrooms"`
	Area          *float64 `json:"area,omitempty"`
	Featured      bool     `json:"featured"`
	RegionSlug    string   `json:"region_slug,omitempty"`
	RegionName    string   `json:"region_name,omitempty"`
	AgentName     string   `json:"agent_name,omitempty"`
	CreatedAt     int64    `json:"created_at"`
}

// DocFromProperty builds a search document from a property row plus the
// denormalized region/agent names the caller already resolved.
func DocFromProperty(p *models.Property, regionSlug, regionName, agentName string) PropertyDoc {
	return PropertyDoc{
		ID:            p.ID,
		TitleEN:       p.TitleEN,
		TitleES:       p.TitleES,
		DescriptionEN: p.DescriptionEN,
		DescriptionES: p.DescriptionES,
		Type:          string(p.Type),
		ListingType:   string(p.ListingType),
		Status:        string(p.Status),
		PriceSale:     p.PriceSale,
		PriceRent:     p.PriceRent,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		Area:          p.Area,
		Featured:      p.Featured,
		RegionSlug:    regionSlug,
		RegionName:    regionName,
		AgentName:     agentName,
		CreatedAt:     p.CreatedAt.Unix(),
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title_en",
		"title_es",
		"description_en",
		"description_es",
		"region_name",
		"agent_name",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"type",
		"listing_type",
		"status",
		"bedrooms",
		"bathrooms",
		"price_sale",
		"price_rent",
		"region_slug",
		"featured",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"price_sale",
		"price_rent",
		"area",
		"bedrooms",
		"created_at",
	})
	if err != nil {
		return err
	}

	return nil
}

// IndexProperty indexes a single property document
func (s *SearchClient) IndexProperty(doc PropertyDoc) error {
	_, err := s.client.Index(s.index).AddDocuments([]PropertyDoc{doc})
	return err
}

// IndexProperties indexes multiple property documents
func (s *SearchClient) IndexProperties(docs []PropertyDoc) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}

// RemoveProperty removes a property from the index (delete or unpublish)
func (s *SearchClient) RemoveProperty(id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// ClearIndex removes all documents (used before a full reindex)
func (s *SearchClient) ClearIndex() error {
	_, err := s.client.Index(s.index).DeleteAllDocuments()
	return err
}

// SearchResult represents search results with facets
type SearchResult struct {
	Hits           []PropertyDoc          `json:"hits"`
	TotalHits      int64                  `json:"total_hits"`
	Facets         map[string]interface{} `json:"facets,omitempty"`
	ProcessingTime int64                  `json:"processing_time_ms"`
}

// Search performs a free-text search over the indexed properties
func (s *SearchClient) Search(query string, limit int64) (*SearchResult, error) {
	if limit == 0 {
		limit = 20
	}

	searchRes, err := s.client.Index(s.index).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]PropertyDoc, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		hits = append(hits, parseDocFromHit(hit))
	}

	return &SearchResult{
		Hits:           hits,
		TotalHits:      searchRes.EstimatedTotalHits,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// GetFacets retrieves facet distribution for specified fields
func (s *SearchClient) GetFacets(facets []string) (map[string]interface{}, error) {
	searchRes, err := s.client.Index(s.index).Search("", &meilisearch.SearchRequest{
		Limit:  0,
		Facets: facets,
	})
	if err != nil {
		return nil, err
	}

	if searchRes.FacetDistribution != nil {
		if facetMap, ok := searchRes.FacetDistribution.(map[string]interface{}); ok {
			return facetMap, nil
		}
	}
	return map[string]interface{}{}, nil
}

// parseDocFromHit converts a search hit to a PropertyDoc
func parseDocFromHit(hit interface{}) PropertyDoc {
	hitMap, ok := hit.(map[string]interface{})
	if !ok {
		return PropertyDoc{}
	}

	doc := PropertyDoc{
		ID:            getString(hitMap, "id"),
		TitleEN:       getString(hitMap, "title_en"),
		TitleES:       getString(hitMap, "title_es"),
		DescriptionEN: getString(hitMap, "description_en"),
		DescriptionES: getString(hitMap, "description_es"),
		Type:          getString(hitMap, "type"),
		ListingType:   getString(hitMap, "listing_type"),
		Status:        getString(hitMap, "status"),
		RegionSlug:    getString(hitMap, "region_slug"),
		RegionName:    getString(hitMap, "region_name"),
		AgentName:     getString(hitMap, "agent_name"),
	}

	if v, ok := hitMap["price_sale"].(float64); ok {
		price := int64(v)
		doc.PriceSale = &price
	}
	if v, ok := hitMap["price_rent"].(float64); ok {
		price := int64(v)
		doc.PriceRent = &price
	}
	if v, ok := hitMap["bedrooms"].(float64); ok {
		doc.Bedrooms = int(v)
	}
	if v, ok := hitMap["bathrooms"].(float64); ok {
		doc.Bathrooms = int(v)
	}
	if v, ok := hitMap["area"].(float64); ok {
		doc.Area = &v
	}
	if v, ok := hitMap["featured"].(bool); ok {
		doc.Featured = v
	}
	if v, ok := hitMap["created_at"].(float64); ok {
		doc.CreatedAt = int64(v)
	}

	return doc
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
