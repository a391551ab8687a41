package contact

import (
	"net/url"
	"strings"
	"testing"

	"omifemcuts/pkg/domain"
)

func decodeText(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse %q: %v", link, err)
	}
	if u.Host != "wa.me" || u.Path != "/"+WhatsAppNumber {
		t.Fatalf("unexpected target %q", link)
	}
	return u.Query().Get("text")
}

func TestWhatsAppLinkEncodesSpacesAsPercent(t *testing.T) {
	link := InquiryLink()
	if strings.Contains(link, "+") {
		t.Fatalf("spaces must not be encoded as '+': %s", link)
	}
	if got := decodeText(t, link); got != InquiryMessage {
		t.Fatalf("text = %q", got)
	}
}

func TestFormatNaira(t *testing.T) {
	price := int64(1250000)
	if got := FormatNaira(&price); got != "₦1,250,000" {
		t.Fatalf("format = %q", got)
	}
	if got := FormatNaira(nil); got != "TBD" {
		t.Fatalf("missing price = %q", got)
	}
}

func TestOrderMessageUsesPriceMode(t *testing.T) {
	with := int64(85000)
	without := int64(30000)
	s := domain.Style{Title: "Lace Buba", Description: "Two-piece lace set", PriceWithFabrics: &with, PriceWithoutFabrics: &without}

	fabric := decodeText(t, OrderLink(s, "https://omifemcuts.com/styles/abc", ModeFabric))
	if !strings.Contains(fabric, "Price With Fabric: ₦85,000") {
		t.Fatalf("fabric message missing price: %q", fabric)
	}
	if !strings.Contains(fabric, "✨ *Lace Buba* ✨") || !strings.Contains(fabric, "🔗 View Style: https://omifemcuts.com/styles/abc") {
		t.Fatalf("unexpected message: %q", fabric)
	}
	if !strings.Contains(fabric, "⏰ Delivery: 7-14 days") {
		t.Fatalf("default delivery time missing: %q", fabric)
	}

	tailoring := OrderMessage(s, "", ModeTailoring)
	if !strings.Contains(tailoring, "Price Without Fabric: ₦30,000") || strings.Contains(tailoring, "View Style") {
		t.Fatalf("unexpected tailoring message: %q", tailoring)
	}
	if !strings.HasSuffix(tailoring, orderQuestion) {
		t.Fatalf("message should end with the question")
	}

	s.PriceWithFabrics = nil
	if got := OrderMessage(s, "", ModeFabric); !strings.Contains(got, "Price With Fabric: TBD") {
		t.Fatalf("missing price should read TBD: %q", got)
	}
}

func TestParsePriceMode(t *testing.T) {
	if m, ok := ParsePriceMode(""); !ok || m != ModeFabric {
		t.Fatalf("default mode = %q", m)
	}
	if m, ok := ParsePriceMode("Tailoring"); !ok || m != ModeTailoring {
		t.Fatalf("tailoring mode = %q", m)
	}
	if _, ok := ParsePriceMode("free"); ok {
		t.Fatalf("unknown mode accepted")
	}
}

func TestAllLinks(t *testing.T) {
	l := AllLinks()
	if l.Phone != "tel:+2348032205341" || l.Email != "mailto:info@omifemcuts.com" || len(l.Hours) != 3 {
		t.Fatalf("unexpected links: %+v", l)
	}
	if decodeText(t, l.Consultation) != ConsultationMessage || decodeText(t, l.CustomDesign) != CustomDesignMessage {
		t.Fatalf("message links mismatch")
	}
}
