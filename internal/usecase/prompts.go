package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/smartswap/backend/internal/domain"
)

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// buildSwapPrompt asks for up to maxSuggestions swaps for product
func buildSwapPrompt(product *domain.Product, userContext string, catalog []domain.Product, maxSuggestions int) string {
	var lines []string
	for _, p := range catalog {
		lines = append(lines, fmt.Sprintf("- %s (SKU: %s, Price: $%s, Category: %s)",
			p.Name, p.SKU, formatPrice(p.Price), p.Category))
	}

	return fmt.Sprintf(`Given the following product that needs a swap:
Product: %s
SKU: %s
Price: $%s
Category: %s

Context: %s

Available products for swapping:
%s

Please suggest the top %d most suitable product swaps and explain your reasoning.
Consider factors like category similarity, price range, and the given context.

Respond with a JSON array of objects, each with: "sku" (string), "reasoning" (string), "confidence" (number 0-1).
Example: [{"sku": "LAPTOP-002", "reasoning": "Similar specs, better price", "confidence": 0.85}]`,
		product.Name, product.SKU, formatPrice(product.Price), product.Category,
		userContext, strings.Join(lines, "\n"), maxSuggestions)
}

// buildContextPrompt asks for up to maxSuggestions products matching context
func buildContextPrompt(userContext string, catalog []domain.Product, maxSuggestions int) string {
	var lines []string
	for _, p := range catalog {
		lines = append(lines, fmt.Sprintf("- %s (SKU: %s, Price: $%s, Category: %s, Attributes: %s)",
			p.Name, p.SKU, formatPrice(p.Price), p.Category, formatAttributes(p.Attributes)))
	}

	return fmt.Sprintf(`You are a smart product recommendation system. Based on the following context, suggest the most suitable products from the available inventory.

Context: %s

Available products:
%s

Please suggest the top %d most suitable products that match the context and explain your reasoning.
Consider factors like category, price, attributes, and how well they match the customer's needs described in the context.

Respond with a JSON array of objects, each with: "sku" (string), "reasoning" (string), "confidence" (number 0-1).
Example: [{"sku": "SOAP-001", "reasoning": "Gentle formula suitable for sensitive skin", "confidence": 0.85}]`,
		userContext, strings.Join(lines, "\n"), maxSuggestions)
}

func formatAttributes(attrs domain.Attributes) string {
	if len(attrs) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k].String())
	}
	return strings.Join(parts, ", ")
}
