package router

// Route is a named view of the wallet. Path segments starting with ':' are
// parameters; a trailing '?' marks them optional.
type Route struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Route names used by the host in navigation events
const (
	RouteHome                = "home"
	RouteDashboard           = "dashboard"
	RouteOnboarding          = "onboarding"
	RouteDocument            = "document"
	RouteAddDocument         = "addDocument"
	RouteAddDocumentPayment  = "addDocumentPayment"
	RouteDocumentOffer       = "documentOffer"
	RouteDocumentOfferCode   = "documentOfferCode"
	RouteDocumentOfferManual = "documentOfferManual"
	RouteDocumentPresent     = "documentPresentation"
	RouteLoading             = "loading"
	RouteUsageHistory        = "usageHistory"
	RouteSettings            = "settings"
	RouteActivation          = "activation"
	RoutePrivacyPolicy       = "privacyPolicy"
	RouteDashboardMenu       = "dashboardMenu"
	RouteSign                = "sign"
	RouteSignatureSelect     = "signatureSelect"
	RouteSignDone            = "signDone"
	RoutePaymentDone         = "paymentDone"
	RouteAuthDone            = "authDone"
	RouteSessionEnded        = "sessionEnded"
	RouteError               = "error"
	RouteForbidden           = "forbidden"
	RouteNotAuthorized       = "notAuthorized"
)

// DefaultRoutes returns the wallet's route table
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/"},
		{Name: RouteDashboard, Path: "/dashboard/:id?"},
		{Name: RouteOnboarding, Path: "/onboarding/:step?"},
		{Name: RouteDocument, Path: "/document/:id"},
		{Name: RouteAddDocument, Path: "/add-document"},
		{Name: RouteAddDocumentPayment, Path: "/add-payment"},
		{Name: RouteDocumentOffer, Path: "/document-offer"},
		{Name: RouteDocumentOfferCode, Path: "/document-offer-code"},
		{Name: RouteDocumentOfferManual, Path: "/document-offer-manual/:status?"},
		{Name: RouteDocumentPresent, Path: "/document-presentation"},
		{Name: RouteLoading, Path: "/loading"},
		{Name: RouteUsageHistory, Path: "/usage-history"},
		{Name: RouteSettings, Path: "/settings"},
		{Name: RouteActivation, Path: "/activation/:step?"},
		{Name: RoutePrivacyPolicy, Path: "/privacy-policy"},
		{Name: RouteDashboardMenu, Path: "/dashboard-menu/:id?"},
		{Name: RouteSign, Path: "/sign/:filePath/:type/:id?"},
		{Name: RouteSignatureSelect, Path: "/signature-select"},
		{Name: RouteSignDone, Path: "/sign-done/:step/:type?"},
		{Name: RoutePaymentDone, Path: "/payment-done/:step"},
		{Name: RouteAuthDone, Path: "/auth-done"},
		{Name: RouteSessionEnded, Path: "/sessionEnded"},
		{Name: RouteError, Path: "/error"},
		{Name: RouteForbidden, Path: "/forbidden"},
		{Name: RouteNotAuthorized, Path: "/not-authorized"},
	}
}
