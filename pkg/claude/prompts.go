package claude

import (
	"fmt"
	"strings"
)

const matchSystemPrompt = `You are an entity-resolution analyst. You decide whether a scraped web page is the official website of a specific registered UK company. Respond with JSON only, no prose before or after.`

const matchRules = `Rules:
1. The page must belong to the company itself. Business directories, registries, news articles and social-media profiles are never the official website, even when they describe the company accurately.
2. A match requires the page to be about this exact company, not one with a similar name. Use the company name, postcode and registration number as evidence.
3. Trading names and brand names may differ from the registered name. A page is still a match when the postcode or registration number ties it to this company.
4. The company is registered in the United Kingdom. A site presenting the business as based outside the UK is not a match.
5. The page content should be plausible for the company's industry classification codes.
6. If the page is NOT the official website but contains a link that clearly points to the company's own site, report that link as embedded_url and answer match=false.
7. When the evidence is ambiguous, answer match=false.

Respond with exactly this JSON object:
{"match": true or false, "url": "the official website URL if match is true, otherwise empty", "embedded_url": "a link to the company's own site found on a non-matching page, otherwise empty"}`

func matchPrompt(company CompanyInfo, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company name: %s\n", company.Name)
	fmt.Fprintf(&b, "Registration number: %s\n", company.RegistrationNumber)
	fmt.Fprintf(&b, "Postcode: %s\n", company.Postcode)
	if len(company.SICCodes) > 0 {
		fmt.Fprintf(&b, "Industry classification: %s\n", strings.Join(company.SICCodes, "; "))
	}
	fmt.Fprintf(&b, "\n%s\n\nPage content:\n%s", matchRules, content)
	return b.String()
}

const rejectionSystemPrompt = `You are an entity-resolution analyst verifying a candidate website link. Your job is to look for reasons to REJECT the page. Respond with JSON only, no prose before or after.`

const rejectionRules = `Reject the page when any of the following holds:
1. The site presents the business as based outside the United Kingdom.
2. The page content has no plausible relation to the company's industry classification codes.
3. The page clearly belongs to a different company than the one described.
4. The page is a business directory, registry or aggregator rather than a company's own site.

If none of these apply, do not reject.

Respond with exactly this JSON object:
{"reject": true or false, "reason": "a short reason when rejecting, otherwise empty"}`

func rejectionPrompt(company CompanyInfo, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company name: %s\n", company.Name)
	fmt.Fprintf(&b, "Registration number: %s\n", company.RegistrationNumber)
	fmt.Fprintf(&b, "Postcode: %s\n", company.Postcode)
	if len(company.SICCodes) > 0 {
		fmt.Fprintf(&b, "Industry classification: %s\n", strings.Join(company.SICCodes, "; "))
	}
	fmt.Fprintf(&b, "\n%s\n\nPage content:\n%s", rejectionRules, content)
	return b.String()
}

const reformulateSystemPrompt = `You craft web search queries for locating the official website of a registered UK company. Respond with JSON only, no prose before or after.`

func reformulatePrompt(company CompanyInfo) string {
	var b strings.Builder
	b.WriteString("The query built from the registered details below found no acceptable result. ")
	b.WriteString("Write one alternative search query likely to surface the company's own website. ")
	b.WriteString("Consider dropping legal suffixes, using trading-name guesses, or leading with the locality.\n\n")
	fmt.Fprintf(&b, "Company name: %s\n", company.Name)
	fmt.Fprintf(&b, "Registration number: %s\n", company.RegistrationNumber)
	fmt.Fprintf(&b, "Postcode: %s\n", company.Postcode)
	if len(company.SICCodes) > 0 {
		fmt.Fprintf(&b, "Industry classification: %s\n", strings.Join(company.SICCodes, "; "))
	}
	b.WriteString("\nRespond with exactly this JSON object:\n")
	b.WriteString(`{"query": "the search query"}`)
	return b.String()
}
