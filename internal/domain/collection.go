package domain

// SmartCollection groups product types under a handle; BodyHTML carries the tag
// the storefront filters by.
type SmartCollection struct {
	Handle   string `json:"handle"`
	Title    string `json:"title"`
	BodyHTML string `json:"body_html,omitempty"`
}

type ProductType struct {
	Name                  string `json:"name"`
	SmartCollectionHandle string `json:"smart_collection_handle,omitempty"`
}

type Brand struct {
	Name string `json:"name"`
}

// FilterOptions lists the facet values a catalog page can offer.
type FilterOptions struct {
	ProductTypes     []string          `json:"product_types"`
	Vendors          []string          `json:"vendors"`
	Colors           []string          `json:"colors"`
	Sizes            []string          `json:"sizes"`
	SmartCollections []SmartCollection `json:"smart_collections"`
}
