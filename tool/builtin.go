package tool

import (
	"context"
	"fmt"
	"strings"
)

// DefaultCurrentYear is used by CalculateAge when the model omits current_year.
const DefaultCurrentYear = 2024

var searchResults = map[string]string{
	"weather in london":   "The weather in London is currently cloudy with a temperature of 15°C.",
	"capital of france":   "The capital of France is Paris.",
	"population of earth": "The estimated population of Earth is around 8 billion people.",
	"tallest mountain":    "Mount Everest is the tallest mountain above sea level.",
}

// SearchInformation returns canned facts for a handful of queries.
func SearchInformation() *Func {
	return Typed("search_information",
		"Provides factual information on a given topic. Use this tool to find answers to phrases like 'capital of France' or 'weather in London?'.",
		Object(map[string]any{
			"query": Property("string", "The topic or question to look up"),
		}, "query"),
		func(_ context.Context, args struct {
			Query string `json:"query"`
		}) (string, error) {
			return Search(args.Query), nil
		})
}

// Search is the lookup behind SearchInformation.
func Search(query string) string {
	if r, ok := searchResults[strings.ToLower(strings.TrimSpace(query))]; ok {
		return r
	}
	return fmt.Sprintf("Simulated search result for '%s': No specific information found, but the topic seems interesting.", query)
}

type ageArgs struct {
	BirthYear   int `json:"birth_year"`
	CurrentYear int `json:"current_year"`
}

// CalculateAge computes an age from a birth year.
func CalculateAge() *Func {
	return Typed("calculate_age",
		"Calculates a person's age based on birth year and current year.",
		Object(map[string]any{
			"birth_year":   Property("integer", "The year the person was born"),
			"current_year": Property("integer", "The current year (defaults to 2024)"),
		}, "birth_year"),
		func(_ context.Context, args ageArgs) (string, error) {
			if args.CurrentYear == 0 {
				args.CurrentYear = DefaultCurrentYear
			}
			return fmt.Sprintf("The person is %d years old.", args.CurrentYear-args.BirthYear), nil
		})
}

var capitals = map[string]string{
	"france":  "Paris",
	"spain":   "Madrid",
	"italy":   "Rome",
	"germany": "Berlin",
	"japan":   "Tokyo",
}

// GetCapital returns the capital city of a few countries.
func GetCapital() *Func {
	return Typed("get_capital",
		"Returns the capital city of a given country.",
		Object(map[string]any{
			"country": Property("string", "The name of the country"),
		}, "country"),
		func(_ context.Context, args struct {
			Country string `json:"country"`
		}) (string, error) {
			capital, ok := capitals[strings.ToLower(args.Country)]
			if !ok {
				capital = "Unknown"
			}
			return fmt.Sprintf("The capital of %s is %s.", args.Country, capital), nil
		})
}
