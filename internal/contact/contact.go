// Package contact builds the outbound WhatsApp, phone, mail and map links and
// the business contact details shown on the contact page.
package contact

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"omifemcuts/pkg/domain"
)

const (
	WhatsAppNumber = "2348032205341"
	Phone          = "+2348032205341"
	Email          = "info@omifemcuts.com"
	Address        = "123 Fashion Street, Victoria Island, Lagos, Nigeria"
	MapURL         = "https://maps.google.com/?q=Victoria+Island+Lagos+Nigeria"

	InquiryMessage      = "Hello OmifemCuts, I would like to make an inquiry about your tailoring services."
	CustomDesignMessage = "Hello OmifemCuts, I would like to discuss a custom design."
	ConsultationMessage = "Hello OmifemCuts, I would like to book a tailoring consultation."
	GeneralMessage      = "Hello OmifemCuts, I need information about your tailoring services."

	orderQuestion = "How much will it cost to get this dress and how many days will it take to be delivered?"
)

// PriceMode selects which of a style's two prices is quoted.
type PriceMode string

const (
	ModeTailoring PriceMode = "tailoring"
	ModeFabric    PriceMode = "fabric"
)

// ParsePriceMode defaults to fabric-inclusive pricing.
func ParsePriceMode(raw string) (PriceMode, bool) {
	switch PriceMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeFabric:
		return ModeFabric, true
	case ModeTailoring:
		return ModeTailoring, true
	default:
		return "", false
	}
}

// Price returns the price shown for mode, or nil when the style has none.
func (m PriceMode) Price(s domain.Style) *int64 {
	if m == ModeTailoring {
		return s.PriceWithoutFabrics
	}
	return s.PriceWithFabrics
}

func (m PriceMode) label() string {
	if m == ModeTailoring {
		return "Price Without Fabric"
	}
	return "Price With Fabric"
}

// Hours is one line of the opening times.
type Hours struct {
	Days  string `json:"days"`
	Hours string `json:"hours"`
}

var WorkingHours = []Hours{
	{Days: "Monday - Friday", Hours: "9:00 AM - 7:00 PM"},
	{Days: "Saturday", Hours: "10:00 AM - 5:00 PM"},
	{Days: "Sunday", Hours: "12:00 PM - 4:00 PM"},
}

// Links is the contact page payload.
type Links struct {
	WhatsApp     string  `json:"whatsapp"`
	CustomDesign string  `json:"customDesign"`
	Consultation string  `json:"consultation"`
	General      string  `json:"general"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	Map          string  `json:"map"`
	Address      string  `json:"address"`
	Hours        []Hours `json:"hours"`
}

func AllLinks() Links {
	return Links{
		WhatsApp:     InquiryLink(),
		CustomDesign: CustomDesignLink(),
		Consultation: ConsultationLink(),
		General:      WhatsAppLink(GeneralMessage),
		Phone:        "tel:" + Phone,
		Email:        "mailto:" + Email,
		Map:          MapURL,
		Address:      Address,
		Hours:        append([]Hours(nil), WorkingHours...),
	}
}

// WhatsAppLink opens a chat with the shop with text pre-filled.
func WhatsAppLink(text string) string {
	// QueryEscape encodes spaces as '+'; WhatsApp expects %20.
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "https://wa.me/" + WhatsAppNumber + "?text=" + escaped
}

func InquiryLink() string      { return WhatsAppLink(InquiryMessage) }
func CustomDesignLink() string { return WhatsAppLink(CustomDesignMessage) }
func ConsultationLink() string { return WhatsAppLink(ConsultationMessage) }

// OrderMessage is the pre-filled order text for one style.
func OrderMessage(s domain.Style, styleURL string, mode PriceMode) string {
	s = domain.NormalizeStyle(s)
	var b strings.Builder
	b.WriteString("Hello OmifemCuts, I'm interested in this style:\n\n")
	b.WriteString("✨ *" + s.Title + "* ✨\n")
	b.WriteString(s.Description + "\n\n")
	b.WriteString("💰 " + mode.label() + ": " + FormatNaira(mode.Price(s)) + "\n")
	b.WriteString("⏰ Delivery: " + s.DeliveryTime + "\n")
	if styleURL != "" {
		b.WriteString("🔗 View Style: " + styleURL + "\n")
	}
	b.WriteString("\n" + orderQuestion)
	return b.String()
}

// OrderLink is the WhatsApp link for ordering s.
func OrderLink(s domain.Style, styleURL string, mode PriceMode) string {
	return WhatsAppLink(OrderMessage(s, styleURL, mode))
}

var printer = message.NewPrinter(language.English)

// FormatNaira renders a price like "₦45,000", or "TBD" when absent.
func FormatNaira(price *int64) string {
	if price == nil {
		return "TBD"
	}
	return printer.Sprintf("₦%d", *price)
}
