// Package intent implements the rule-first commerce intent classifier,
// with an optional LLM override when the LLM's confidence clears the
// rule result's confidence (and a 0.7 floor).
package intent

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// LLMClassifier is the subset of the LLM client the classifier needs.
// Implemented by internal/llm.Client.
type LLMClassifier interface {
	ClassifyIntent(ctx context.Context, message string, recent []commerce.RecentTurn) (*commerce.IntentResult, error)
}

// Classifier is a stateless rule-first intent classifier with an optional
// LLM fallback/override.
type Classifier struct {
	llm LLMClassifier
}

// New builds a Classifier. llm may be nil, in which case only the rule
// engine runs.
func New(llm LLMClassifier) *Classifier {
	return &Classifier{llm: llm}
}

// Classify returns the best intent for message given the recent turn
// history in ctxInfo.
func (c *Classifier) Classify(ctx context.Context, message string, ctxInfo commerce.ClassifyContext) commerce.IntentResult {
	ruleResult := classifyRules(message, ctxInfo)
	if c.llm == nil {
		return ruleResult
	}
	llmResult, err := c.llm.ClassifyIntent(ctx, message, ctxInfo.Recent)
	if err != nil || llmResult == nil {
		return ruleResult
	}
	floor := ruleResult.Confidence
	if floor < 0.7 {
		floor = 0.7
	}
	if llmResult.Confidence >= floor {
		return *llmResult
	}
	return ruleResult
}

var (
	wsCollapse      = regexp.MustCompile(`[_\s]+`)
	orderIDRe       = regexp.MustCompile(`(order[_\-]?\d+|ord[_\-]?\d+)`)
	ticketIDRe      = regexp.MustCompile(`(ticket[_\-]?(?:item[_\-]?)?\d+)`)
	numberRe        = regexp.MustCompile(`\b(\d+)\b`)
	belowPriceRe    = regexp.MustCompile(`(?:under|below)\s*\$?(\d+)`)
	abovePriceRe    = regexp.MustCompile(`(?:over|above)\s*\$?(\d+)`)
	brandExplicitRe = regexp.MustCompile(`(?i)(?:brand|from)\s*(?:is|=|:)?\s*([a-zA-Z0-9&\-\s]{2,80})`)
	productIDRe     = regexp.MustCompile(`(prod[_\-]?\d+)`)
	variantIDRe     = regexp.MustCompile(`(var[_\-]?\d+)`)
	itemIDRe        = regexp.MustCompile(`(item[_\-]?\d+)`)
	discountCodeRe  = regexp.MustCompile(`(?i)(?:code|coupon|promo)\s*(?:is|=|:)?\s*([a-zA-Z0-9_-]{4,20})`)
	codeCandidateRe = regexp.MustCompile(`\b([A-Za-z0-9]{4,20})\b`)
	comboQueryRe    = regexp.MustCompile(`(?i)\b(and\s+)?(add|put)\b.*\bcart\b`)
	spacesRe        = regexp.MustCompile(`\s+`)
	addWordRe       = regexp.MustCompile(`(?i)\badd\b`)
	toCartRe        = regexp.MustCompile(`(?i)\bto\b\s+\b(my\s+)?cart\b`)
	idTokenRe       = regexp.MustCompile(`(?i)\b(prod[_\-]?\d+|var[_\-]?\d+|item[_\-]?\d+)\b`)
	fillerWordsRe   = regexp.MustCompile(`(?i)\b(please|the|a|an|item|items|quantity|qty|of|for|me|my|cart|with|color)\b`)
	punctRe         = regexp.MustCompile(`[,:;]`)
	cartFillerRe    = regexp.MustCompile(`(?i)\b(remove|delete|drop|update|change|set|increase|decrease|reduce|quantity|qty|from|in|cart|my|the)\b`)
	sizeRe          = regexp.MustCompile(`\b(?:size\s*(?:is|=)?|wear size)\s*(xxs|xs|s|m|l|xl|xxl|\d{1,2})\b`)
	maxPriceWordRe  = regexp.MustCompile(`(?:under|below|max(?:imum)?)\s*\$?(\d+)`)
	minPriceWordRe  = regexp.MustCompile(`(?:over|above|min(?:imum)?)\s*\$?(\d+)`)
	brandListRe     = regexp.MustCompile(`(?:brand|brands?)\s*(?:is|are|=|:)?\s*([a-z0-9,\s&-]{2,120})`)
	viewCartRe      = regexp.MustCompile(`\b(view|show|open|see|display)\s+(my\s+)?cart\b`)
	addCartTokensRe = regexp.MustCompile(`\b(find|search|show me|recommend|looking for|under|below|over|above)\b`)
)

var colors = []string{"black", "blue", "white", "green", "red", "gray", "charcoal", "navy"}
var knownBrands = []string{"strideforge", "peakroute", "aerothread", "carryworks"}

func classifyRules(message string, ctxInfo commerce.ClassifyContext) commerce.IntentResult {
	text := strings.ToLower(strings.TrimSpace(message))
	phraseText := strings.TrimSpace(wsCollapse.ReplaceAllString(text, " "))
	entities := map[string]interface{}{}

	if text == "" {
		return commerce.IntentResult{Name: "general_question", Confidence: 0.2, Entities: map[string]interface{}{}}
	}

	if (strings.Contains(text, "cart") || strings.Contains(text, "my cart")) && containsOrderStatusPhrase(text) {
		mergeEntities(entities, extractOrderID(text))
		return commerce.IntentResult{Name: "multi_status", Confidence: 0.9, Entities: entities}
	}

	if isShowMemoryRequest(text) {
		return commerce.IntentResult{Name: "show_memory", Confidence: 0.93, Entities: map[string]interface{}{}}
	}
	if isClearMemoryRequest(text) {
		return commerce.IntentResult{Name: "clear_memory", Confidence: 0.92, Entities: map[string]interface{}{}}
	}
	if forget := extractForgetPreference(message); len(forget) > 0 {
		return commerce.IntentResult{Name: "forget_preference", Confidence: 0.9, Entities: forget}
	}
	if updates := extractPreferenceUpdates(message); len(updates) > 0 && isPreferenceStatement(text) {
		return commerce.IntentResult{Name: "save_preference", Confidence: 0.88, Entities: map[string]interface{}{"updates": updates}}
	}

	if strings.Contains(text, "order") && strings.Contains(text, "address") && containsAny(text, "change", "update", "delivery") {
		mergeEntities(entities, extractOrderID(text))
		mergeEntities(entities, extractShippingAddress(message))
		return commerce.IntentResult{Name: "change_order_address", Confidence: 0.88, Entities: entities}
	}
	if strings.Contains(text, "cancel") && strings.Contains(text, "order") {
		mergeEntities(entities, extractOrderID(text))
		return commerce.IntentResult{Name: "cancel_order", Confidence: 0.91, Entities: entities}
	}
	if strings.Contains(text, "refund") && strings.Contains(text, "order") {
		mergeEntities(entities, extractOrderID(text))
		return commerce.IntentResult{Name: "request_refund", Confidence: 0.9, Entities: entities}
	}
	if containsOrderStatusPhrase(text) {
		mergeEntities(entities, extractOrderID(text))
		return commerce.IntentResult{Name: "order_status", Confidence: 0.9, Entities: entities}
	}
	if strings.Contains(text, "checkout") || strings.Contains(text, "place order") || strings.Contains(text, "buy now") {
		return commerce.IntentResult{Name: "checkout", Confidence: 0.95, Entities: map[string]interface{}{}}
	}

	if isSupportStatusRequest(text) {
		mergeEntities(entities, extractTicketID(text))
		return commerce.IntentResult{Name: "support_status", Confidence: 0.9, Entities: entities}
	}
	if isSupportCloseRequest(text) {
		mergeEntities(entities, extractTicketID(text))
		return commerce.IntentResult{Name: "support_close", Confidence: 0.9, Entities: entities}
	}
	if isSupportEscalationRequest(text) {
		mergeEntities(entities, extractTicketID(text))
		entities["query"] = strings.TrimSpace(message)
		return commerce.IntentResult{Name: "support_escalation", Confidence: 0.88, Entities: entities}
	}

	if strings.Contains(text, "add") && strings.Contains(text, "cart") && addCartTokensRe.MatchString(text) {
		mergeEntities(entities, extractQuantity(text))
		mergeEntities(entities, extractProductOrVariantID(text))
		mergeEntities(entities, extractPriceRange(text))
		mergeEntities(entities, extractColor(text))
		mergeEntities(entities, extractBrand(message))
		entities["query"] = extractSearchQueryForCombo(message)
		return commerce.IntentResult{Name: "search_and_add_to_cart", Confidence: 0.93, Entities: entities}
	}

	if isClearCartRequest(text) {
		return commerce.IntentResult{Name: "clear_cart", Confidence: 0.94, Entities: map[string]interface{}{}}
	}
	if isAdjustCartQuantityRequest(text) {
		mergeEntities(entities, extractProductOrItemID(text))
		mergeEntities(entities, extractDelta(text))
		if q := extractCartItemQuery(message); q != "" {
			entities["query"] = q
		}
		return commerce.IntentResult{Name: "adjust_cart_quantity", Confidence: 0.89, Entities: entities}
	}
	if items := extractMultiAddItems(message); len(items) >= 2 {
		return commerce.IntentResult{Name: "add_multiple_to_cart", Confidence: 0.9, Entities: map[string]interface{}{"items": items}}
	}
	if containsAny(text, "discount", "coupon", "promo") && containsAny(text, "apply", "use", "code") {
		mergeEntities(entities, extractDiscountCode(message))
		return commerce.IntentResult{Name: "apply_discount", Confidence: 0.9, Entities: entities}
	}
	if strings.Contains(text, "remove") && strings.Contains(text, "cart") {
		mergeEntities(entities, extractQuantity(text))
		mergeEntities(entities, extractProductOrItemID(text))
		if q := extractCartItemQuery(message); q != "" {
			entities["query"] = q
		}
		return commerce.IntentResult{Name: "remove_from_cart", Confidence: 0.88, Entities: entities}
	}
	if containsAny(text, "update cart", "change quantity", "set quantity") {
		mergeEntities(entities, extractQuantity(text))
		mergeEntities(entities, extractProductOrItemID(text))
		if q := extractCartItemQuery(message); q != "" {
			entities["query"] = q
		}
		return commerce.IntentResult{Name: "update_cart", Confidence: 0.86, Entities: entities}
	}
	if strings.Contains(text, "add") && strings.Contains(text, "cart") {
		mergeEntities(entities, extractQuantity(text))
		mergeEntities(entities, extractProductOrVariantID(text))
		mergeEntities(entities, extractColor(text))
		mergeEntities(entities, extractBrand(message))
		if q := extractAddQuery(message); q != "" {
			entities["query"] = q
		}
		return commerce.IntentResult{Name: "add_to_cart", Confidence: 0.92, Entities: entities}
	}
	if isViewCartRequest(phraseText) {
		return commerce.IntentResult{Name: "view_cart", Confidence: 0.9, Entities: map[string]interface{}{}}
	}

	if containsAny(text, "find", "search", "show me", "recommend", "looking for") {
		mergeEntities(entities, extractPriceRange(text))
		mergeEntities(entities, extractColor(text))
		mergeEntities(entities, extractBrand(message))
		entities["query"] = strings.TrimSpace(message)
		return commerce.IntentResult{Name: "product_search", Confidence: 0.84, Entities: entities}
	}
	if isPriceRefinementRequest(phraseText, ctxInfo) {
		mergeEntities(entities, extractPriceRange(text))
		mergeEntities(entities, extractColor(text))
		mergeEntities(entities, extractBrand(message))
		entities["query"] = strings.TrimSpace(message)
		return commerce.IntentResult{Name: "product_search", Confidence: 0.8, Entities: entities}
	}
	if looksLikeProductQuery(phraseText) {
		mergeEntities(entities, extractPriceRange(text))
		mergeEntities(entities, extractColor(text))
		mergeEntities(entities, extractBrand(message))
		entities["query"] = strings.TrimSpace(message)
		return commerce.IntentResult{Name: "product_search", Confidence: 0.78, Entities: entities}
	}

	return commerce.IntentResult{Name: "general_question", Confidence: 0.6, Entities: map[string]interface{}{"query": strings.TrimSpace(message)}}
}

func mergeEntities(dst, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}

func containsAny(text string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func extractOrderID(text string) map[string]interface{} {
	if m := orderIDRe.FindStringSubmatch(text); m != nil {
		return map[string]interface{}{"orderId": m[1]}
	}
	return map[string]interface{}{}
}

func extractTicketID(text string) map[string]interface{} {
	m := ticketIDRe.FindStringSubmatch(text)
	if m == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{"ticketId": strings.ReplaceAll(m[1], "-", "_")}
}

func extractQuantity(text string) map[string]interface{} {
	m := numberRe.FindStringSubmatch(text)
	if m == nil {
		return map[string]interface{}{}
	}
	n, _ := strconv.Atoi(m[1])
	if n < 1 {
		n = 1
	}
	if n > 50 {
		n = 50
	}
	return map[string]interface{}{"quantity": n}
}

func extractColor(text string) map[string]interface{} {
	for _, c := range colors {
		if strings.Contains(text, c) {
			return map[string]interface{}{"color": c}
		}
	}
	return map[string]interface{}{}
}

func extractPriceRange(text string) map[string]interface{} {
	entities := map[string]interface{}{}
	if m := belowPriceRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		entities["maxPrice"] = v
	}
	if m := abovePriceRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		entities["minPrice"] = v
	}
	return entities
}

func extractBrand(message string) map[string]interface{} {
	if m := brandExplicitRe.FindStringSubmatch(message); m != nil {
		raw := strings.Trim(strings.TrimSpace(m[1]), " .,;")
		if raw != "" {
			return map[string]interface{}{"brand": raw}
		}
	}
	lowered := strings.ToLower(message)
	for _, b := range knownBrands {
		if strings.Contains(lowered, b) {
			return map[string]interface{}{"brand": b}
		}
	}
	return map[string]interface{}{}
}

func extractProductOrVariantID(text string) map[string]interface{} {
	entities := map[string]interface{}{}
	if m := productIDRe.FindStringSubmatch(text); m != nil {
		entities["productId"] = strings.ReplaceAll(m[1], "-", "_")
	}
	if m := variantIDRe.FindStringSubmatch(text); m != nil {
		entities["variantId"] = strings.ReplaceAll(m[1], "-", "_")
	}
	return entities
}

func extractProductOrItemID(text string) map[string]interface{} {
	if m := itemIDRe.FindStringSubmatch(text); m != nil {
		return map[string]interface{}{"itemId": strings.ReplaceAll(m[1], "-", "_")}
	}
	return extractProductOrVariantID(text)
}

func extractDelta(text string) map[string]interface{} {
	if strings.Contains(text, "set quantity") {
		return map[string]interface{}{}
	}
	amount := 1
	if m := numberRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n > 1 {
			amount = n
		}
	}
	if containsAny(text, "decrease", "reduce", "minus", "less") {
		return map[string]interface{}{"delta": -amount}
	}
	if containsAny(text, "increase", "plus", "more", "another") {
		return map[string]interface{}{"delta": amount}
	}
	return map[string]interface{}{}
}

func containsOrderStatusPhrase(text string) bool {
	if !strings.Contains(text, "order") {
		return false
	}
	phrases := []string{
		"order status", "where is my order", "track order",
		"hasn't arrived", "hasnt arrived", "not arrived",
		"order is late", "order late", "delayed order", "order delayed",
	}
	return containsAny(text, phrases...)
}

func extractDiscountCode(message string) map[string]interface{} {
	if m := discountCodeRe.FindStringSubmatch(message); m != nil {
		return map[string]interface{}{"code": strings.ToUpper(m[1])}
	}
	stopWords := map[string]bool{"APPLY": true, "DISCOUNT": true, "COUPON": true, "PROMO": true, "CODE": true, "PLEASE": true, "THIS": true, "THAT": true}
	for _, m := range codeCandidateRe.FindAllStringSubmatch(message, -1) {
		token := strings.ToUpper(m[1])
		if stopWords[token] {
			continue
		}
		if strings.ContainsAny(token, "0123456789") {
			return map[string]interface{}{"code": token}
		}
	}
	return map[string]interface{}{}
}

func extractSearchQueryForCombo(message string) string {
	cleaned := comboQueryRe.ReplaceAllString(message, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(cleaned, " "))
}

var shippingFieldPatterns = []struct {
	field   string
	pattern *regexp.Regexp
}{
	{"name", regexp.MustCompile(`(?i)(?:name)\s*[:=]\s*([^,;]+)`)},
	{"line1", regexp.MustCompile(`(?i)(?:line1|address|street)\s*[:=]\s*([^,;]+)`)},
	{"line2", regexp.MustCompile(`(?i)(?:line2|apt|suite)\s*[:=]\s*([^,;]+)`)},
	{"city", regexp.MustCompile(`(?i)(?:city)\s*[:=]\s*([^,;]+)`)},
	{"state", regexp.MustCompile(`(?i)(?:state)\s*[:=]\s*([^,;]+)`)},
	{"postalCode", regexp.MustCompile(`(?i)(?:postal\s*code|postalcode|zip)\s*[:=]\s*([^,;]+)`)},
	{"country", regexp.MustCompile(`(?i)(?:country)\s*[:=]\s*([^,;]+)`)},
}

func extractShippingAddress(message string) map[string]interface{} {
	fields := map[string]string{}
	for _, fp := range shippingFieldPatterns {
		if m := fp.pattern.FindStringSubmatch(message); m != nil {
			fields[fp.field] = strings.TrimSpace(m[1])
		}
	}
	for _, req := range []string{"line1", "city", "state", "postalCode", "country"} {
		if _, ok := fields[req]; !ok {
			return map[string]interface{}{}
		}
	}
	name := fields["name"]
	if name == "" {
		name = "Customer"
	}
	shipping := map[string]interface{}{
		"name":       name,
		"line1":      fields["line1"],
		"city":       fields["city"],
		"state":      fields["state"],
		"postalCode": fields["postalCode"],
		"country":    fields["country"],
	}
	if v, ok := fields["line2"]; ok {
		shipping["line2"] = v
	}
	return map[string]interface{}{"shippingAddress": shipping}
}

func extractAddQuery(message string) string {
	cleaned := addWordRe.ReplaceAllString(message, " ")
	cleaned = toCartRe.ReplaceAllString(cleaned, " ")
	cleaned = idTokenRe.ReplaceAllString(cleaned, " ")
	cleaned = numberRe.ReplaceAllString(cleaned, " ")
	cleaned = fillerWordsRe.ReplaceAllString(cleaned, " ")
	cleaned = punctRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(spacesRe.ReplaceAllString(cleaned, " "))
	low := strings.ToLower(cleaned)
	if low == "" || low == "to" || low == "cart" {
		return ""
	}
	return cleaned
}

func extractCartItemQuery(message string) string {
	cleaned := cartFillerRe.ReplaceAllString(message, " ")
	cleaned = idTokenRe.ReplaceAllString(cleaned, " ")
	cleaned = numberRe.ReplaceAllString(cleaned, " ")
	cleaned = punctRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(cleaned, " "))
}

func isClearCartRequest(text string) bool {
	return containsAny(text, "clear cart", "empty cart", "remove all from cart", "delete all from cart", "clear my cart", "empty my cart")
}

func isAdjustCartQuantityRequest(text string) bool {
	if strings.Contains(text, "set quantity") {
		return false
	}
	if !strings.Contains(text, "cart") && !strings.Contains(text, "quantity") && !strings.Contains(text, "qty") {
		return false
	}
	return containsAny(text, "increase", "decrease", "reduce", "minus", "plus", "one more", "one less", "another")
}

func isSupportEscalationRequest(text string) bool {
	if containsAny(text, "human agent", "support agent", "talk to support", "talk to a person", "connect me to support", "open a ticket", "escalate", "need help with issue") {
		return true
	}
	return strings.Contains(text, "help") && strings.Contains(text, "order") && strings.Contains(text, "agent")
}

func isSupportStatusRequest(text string) bool {
	return containsAny(text, "ticket status", "support status", "status of my ticket", "my support ticket", "any update on ticket")
}

func isSupportCloseRequest(text string) bool {
	return containsAny(text, "close ticket", "resolve ticket", "mark ticket resolved")
}

var (
	addPrefixRe   = regexp.MustCompile(`(?i)^.*?\badd\b`)
	toCartTailRe  = regexp.MustCompile(`(?i)\bto\b\s+\b(my\s+)?cart\b.*$`)
	listSplitRe   = regexp.MustCompile(`(?i)\s*(?:,|\band\b)\s*`)
	itemFillerRe  = regexp.MustCompile(`(?i)\b(of|a|an|the|please|to|my|cart)\b`)
)

func extractMultiAddItems(message string) []map[string]interface{} {
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "add") || !strings.Contains(lower, "cart") {
		return nil
	}
	body := strings.TrimSpace(addPrefixRe.ReplaceAllString(lower, ""))
	body = strings.TrimSpace(toCartTailRe.ReplaceAllString(body, ""))
	body = strings.Trim(strings.TrimSpace(spacesRe.ReplaceAllString(body, " ")), " .,;")
	if body == "" {
		return nil
	}
	parts := listSplitRe.Split(body, -1)
	var items []map[string]interface{}
	for _, part := range parts {
		chunk := strings.Trim(strings.TrimSpace(part), " .,;")
		if chunk == "" {
			continue
		}
		quantity := 1
		if m := numberRe.FindStringSubmatch(chunk); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n < 1 {
				n = 1
			}
			if n > 50 {
				n = 50
			}
			quantity = n
		}
		color, hasColor := extractColor(chunk)["color"]
		query := numberRe.ReplaceAllString(chunk, " ")
		query = itemFillerRe.ReplaceAllString(query, " ")
		query = strings.TrimSpace(spacesRe.ReplaceAllString(query, " "))
		if query == "" {
			continue
		}
		payload := map[string]interface{}{"query": query, "quantity": quantity}
		if hasColor {
			payload["color"] = color
		}
		items = append(items, payload)
	}
	return items
}

func isShowMemoryRequest(text string) bool {
	return containsAny(text, "what do you remember", "show my preferences", "show memory", "what are my preferences", "what do you know about me", "remembered about me")
}

func isClearMemoryRequest(text string) bool {
	return containsAny(text, "clear memory", "clear my memory", "forget everything", "reset my preferences", "clear preferences")
}

func isPreferenceStatement(text string) bool {
	if containsAny(text, "remember", "note that", "save preference") {
		return true
	}
	if containsAny(text, "my size is", "i wear size", "budget", "price range") {
		return true
	}
	if strings.Contains(text, "i prefer") || strings.Contains(text, "i like") {
		return !containsAny(text, "show me", "find", "search", "add to cart", "checkout", "order status")
	}
	return false
}

func extractPreferenceUpdates(message string) map[string]interface{} {
	text := strings.ToLower(strings.TrimSpace(message))
	updates := map[string]interface{}{}

	if m := sizeRe.FindStringSubmatch(text); m != nil {
		updates["size"] = strings.ToUpper(m[1])
	}

	maxM := maxPriceWordRe.FindStringSubmatch(text)
	minM := minPriceWordRe.FindStringSubmatch(text)
	if maxM != nil || minM != nil {
		priceRange := map[string]interface{}{}
		if minM != nil {
			v, _ := strconv.ParseFloat(minM[1], 64)
			priceRange["min"] = v
		}
		if maxM != nil {
			v, _ := strconv.ParseFloat(maxM[1], 64)
			priceRange["max"] = v
		}
		updates["priceRange"] = priceRange
	}

	var categories []string
	for _, cat := range []string{"shoes", "clothing", "accessories"} {
		if strings.Contains(text, cat) {
			categories = append(categories, cat)
		}
	}
	if strings.Contains(text, "hoodie") || strings.Contains(text, "jogger") {
		categories = append(categories, "clothing")
	}
	if strings.Contains(text, "runner") || strings.Contains(text, "sneaker") {
		categories = append(categories, "shoes")
	}
	if len(categories) > 0 {
		updates["categories"] = sortedUnique(categories)
	}

	var styles []string
	for _, style := range []string{"denim", "casual", "formal", "sport", "athleisure", "vintage", "streetwear", "minimal"} {
		if strings.Contains(text, style) {
			styles = append(styles, style)
		}
	}
	if len(styles) > 0 {
		updates["stylePreferences"] = sortedUnique(styles)
	}

	var pickedColors []string
	for _, c := range colors {
		if strings.Contains(text, c) {
			pickedColors = append(pickedColors, c)
		}
	}
	if len(pickedColors) > 0 {
		updates["colorPreferences"] = sortedUnique(pickedColors)
	}

	if m := brandListRe.FindStringSubmatch(text); m != nil {
		chunks := regexp.MustCompile(`(?:,|and)`).Split(m[1], -1)
		var brands []string
		for _, c := range chunks {
			c = strings.TrimSpace(c)
			if c != "" {
				brands = append(brands, c)
			}
		}
		if len(brands) > 0 {
			updates["brandPreferences"] = brands
		}
	}

	_, hasCat := updates["categories"]
	_, hasStyle := updates["stylePreferences"]
	_, hasColor := updates["colorPreferences"]
	_, hasBrand := updates["brandPreferences"]
	if (strings.Contains(text, "i prefer ") || strings.Contains(text, "i like ")) && !hasCat && !hasStyle && !hasColor && !hasBrand {
		splitRe := regexp.MustCompile(`i prefer |i like `)
		parts := splitRe.Split(text, 2)
		if len(parts) == 2 {
			candidate := strings.Trim(strings.TrimSpace(parts[1]), " .,!?")
			if candidate != "" {
				fields := strings.Fields(candidate)
				if len(fields) > 0 {
					updates["stylePreferences"] = []string{fields[0]}
				}
			}
		}
	}

	return updates
}

func sortedUnique(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	sort.Strings(out)
	return out
}

func extractForgetPreference(message string) map[string]interface{} {
	text := strings.ToLower(strings.TrimSpace(message))
	if !strings.Contains(text, "forget") && !strings.Contains(text, "remove preference") {
		return map[string]interface{}{}
	}
	if strings.Contains(text, "everything") || strings.Contains(text, "all preferences") {
		return map[string]interface{}{"key": "all"}
	}
	switch {
	case strings.Contains(text, "size"):
		return map[string]interface{}{"key": "size"}
	case strings.Contains(text, "price") || strings.Contains(text, "budget"):
		return map[string]interface{}{"key": "priceRange"}
	case strings.Contains(text, "category") || strings.Contains(text, "categories"):
		return map[string]interface{}{"key": "categories"}
	case strings.Contains(text, "style"):
		return map[string]interface{}{"key": "stylePreferences"}
	case strings.Contains(text, "color"):
		return map[string]interface{}{"key": "colorPreferences"}
	case strings.Contains(text, "brand"):
		return map[string]interface{}{"key": "brandPreferences"}
	}
	for _, token := range []string{"shoes", "clothing", "accessories", "denim", "black", "blue", "green", "red", "gray"} {
		if strings.Contains(text, token) {
			return map[string]interface{}{"value": token}
		}
	}
	return map[string]interface{}{}
}

func isViewCartRequest(text string) bool {
	if text == "" {
		return false
	}
	switch text {
	case "cart", "my cart", "view cart", "show cart", "show me cart", "view my cart":
		return true
	}
	if viewCartRe.MatchString(text) {
		return true
	}
	if (strings.Contains(text, "what") || strings.Contains(text, "whats") || strings.Contains(text, "what's")) && strings.Contains(text, "cart") {
		return true
	}
	return false
}

func isPriceRefinementRequest(text string, ctxInfo commerce.ClassifyContext) bool {
	if len(extractPriceRange(text)) == 0 {
		return false
	}
	if containsAny(text, "cart", "checkout", "order", "refund", "ticket", "support") {
		return false
	}
	if ctxInfo.Recent == nil {
		return true
	}
	for i := len(ctxInfo.Recent) - 1; i >= 0; i-- {
		row := ctxInfo.Recent[i]
		if row.Intent == "product_search" || row.Intent == "search_and_add_to_cart" || row.Agent == "product" {
			return true
		}
	}
	return true
}

func looksLikeProductQuery(text string) bool {
	if text == "" {
		return false
	}
	if containsAny(text, "support", "ticket", "order", "refund", "cancel", "checkout", "memory", "preference", "cart") {
		return false
	}
	return containsAny(text,
		"shoe", "shoes", "sneaker", "sneakers", "runner", "running", "trail",
		"hoodie", "jogger", "joggers", "sock", "socks", "backpack", "bag",
		"clothing", "accessories", "denim", "athleisure",
	)
}
