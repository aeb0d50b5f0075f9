package game

import (
	"fmt"
	"strings"
)

type productSpec struct {
	Type        ProductType
	DisplayName string
	Ideal       Allocation
}

var productCatalog = []productSpec{
	{Type: ProductSearch, DisplayName: "Search Engine", Ideal: Allocation{Backend: 40, Frontend: 20, Infra: 15, AI: 15, DB: 10}},
	{Type: ProductVideo, DisplayName: "Video Platform", Ideal: Allocation{Backend: 25, Frontend: 30, Infra: 30, AI: 5, DB: 10}},
	{Type: ProductSocial, DisplayName: "Social Network", Ideal: Allocation{Backend: 25, Frontend: 35, Infra: 15, AI: 10, DB: 15}},
	{Type: ProductMobileOS, DisplayName: "Mobile Operating System", Ideal: Allocation{Backend: 30, Frontend: 35, Infra: 10, AI: 10, DB: 15}},
	{Type: ProductDesktopOS, DisplayName: "Desktop Operating System", Ideal: Allocation{Backend: 40, Frontend: 30, Infra: 10, AI: 5, DB: 15}},
	{Type: ProductSmartphone, DisplayName: "Smartphone", Ideal: Allocation{Backend: 25, Frontend: 30, Infra: 30, AI: 5, DB: 10}},
	{Type: ProductConsole, DisplayName: "Gaming Console", Ideal: Allocation{Backend: 30, Frontend: 25, Infra: 35, AI: 5, DB: 5}},
	{Type: ProductCloud, DisplayName: "Cloud Platform", Ideal: Allocation{Backend: 35, Frontend: 10, Infra: 35, AI: 10, DB: 10}},
	{Type: ProductRidesharing, DisplayName: "Ridesharing Service", Ideal: Allocation{Backend: 30, Frontend: 25, Infra: 15, AI: 20, DB: 10}},
	{Type: ProductEcommerce, DisplayName: "E-commerce Platform", Ideal: Allocation{Backend: 25, Frontend: 30, Infra: 15, AI: 15, DB: 15}},
	{Type: ProductAI, DisplayName: "AI Product", Ideal: Allocation{Backend: 15, Frontend: 15, Infra: 20, AI: 40, DB: 10}},
	{Type: ProductMessenger, DisplayName: "Messaging Platform", Ideal: Allocation{Backend: 30, Frontend: 35, Infra: 20, AI: 5, DB: 10}},
	{Type: ProductOffice, DisplayName: "Office Suite", Ideal: Allocation{Backend: 25, Frontend: 40, Infra: 10, AI: 10, DB: 15}},
	{Type: ProductAntivirus, DisplayName: "Antivirus Software", Ideal: Allocation{Backend: 40, Frontend: 15, Infra: 15, AI: 20, DB: 10}},
	{Type: ProductDatabase, DisplayName: "Database System", Ideal: Allocation{Backend: 45, Frontend: 10, Infra: 15, AI: 10, DB: 20}},
	{Type: ProductDevtools, DisplayName: "Developer Tools", Ideal: Allocation{Backend: 30, Frontend: 35, Infra: 15, AI: 10, DB: 10}},
}

// evenAllocation is used for any type missing from the catalog.
var evenAllocation = Allocation{Backend: 20, Frontend: 20, Infra: 20, AI: 20, DB: 20}

func productByType(t ProductType) (productSpec, error) {
	for _, spec := range productCatalog {
		if spec.Type == t {
			return spec, nil
		}
	}
	return productSpec{}, fmt.Errorf("%w: %s", ErrUnknownProductType, t)
}

// ParseProductType accepts the canonical type name case-insensitively.
func ParseProductType(raw string) (ProductType, error) {
	clean := strings.TrimSpace(raw)
	for _, spec := range productCatalog {
		if strings.EqualFold(string(spec.Type), clean) {
			return spec.Type, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProductType, clean)
}

func IdealAllocation(t ProductType) Allocation {
	spec, err := productByType(t)
	if err != nil {
		return evenAllocation
	}
	return spec.Ideal
}

func DisplayName(t ProductType) string {
	spec, err := productByType(t)
	if err != nil {
		return string(t)
	}
	return spec.DisplayName
}

func ProductTypes() []ProductTypeView {
	out := make([]ProductTypeView, 0, len(productCatalog))
	for _, spec := range productCatalog {
		out = append(out, ProductTypeView{Type: spec.Type, DisplayName: spec.DisplayName})
	}
	return out
}
