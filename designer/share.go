package designer

import (
	"fmt"
	"net/url"

	"tienda-web/config"
	"tienda-web/core"
)

func whatsAppLink(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?%s", phone, url.Values{"text": {message}}.Encode())
}

// ShareLink opens a WhatsApp chat with the shop carrying an exported design.
func ShareLink(contact config.ContactConfig, exportURL string) string {
	message := fmt.Sprintf("%s\n\nDiseño personalizado\n\n%s", contact.WhatsAppMessage, exportURL)
	return whatsAppLink(contact.WhatsAppPhone, message)
}

// ProductInquiryLink opens a WhatsApp chat asking about a catalog product.
func ProductInquiryLink(contact config.ContactConfig, p core.Product, pageURL string) string {
	message := fmt.Sprintf("%s\n\n%s\nPrecio: %s\n\n%s", contact.WhatsAppMessage, p.Name, p.DisplayPrice(), pageURL)
	return whatsAppLink(contact.WhatsAppPhone, message)
}
