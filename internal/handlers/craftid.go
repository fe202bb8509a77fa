package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/charlesng35/craftid/internal/models"
	"github.com/charlesng35/craftid/internal/services"
	apperrors "github.com/charlesng35/craftid/pkg/errors"
	"github.com/charlesng35/craftid/pkg/response"
)

const (
	// timestampLayout renders UTC instants with microsecond precision and a Z suffix.
	timestampLayout = "2006-01-02T15:04:05.000000Z"
	// transactionLayout is appended to "tx_" to form transaction ids.
	transactionLayout = "20060102150405"
	qrCodeSize        = 256
)

// CraftIDHandler exposes CraftID issuance, listing and verification endpoints.
type CraftIDHandler struct {
	svc     *services.CraftIDService
	baseURL string
}

// NewCraftIDHandler constructs the handler. baseURL prefixes the absolute links
// returned by the create endpoint.
func NewCraftIDHandler(svc *services.CraftIDService, baseURL string) *CraftIDHandler {
	return &CraftIDHandler{
		svc:     svc,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

type verificationDTO struct {
	PublicID        string `json:"public_id"`
	PrivateKey      string `json:"private_key,omitempty"`
	PublicHash      string `json:"public_hash"`
	VerificationURL string `json:"verification_url"`
	QRCodeLink      string `json:"qr_code_link,omitempty"`
}

type artisanInfoDTO struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type artInfoDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Photo       string `json:"photo,omitempty"`
}

type linksDTO struct {
	TrackStatus string `json:"track_status"`
	ShopListing string `json:"shop_listing"`
}

type createResponse struct {
	Status                 string                `json:"status"`
	Message                string                `json:"message"`
	TransactionID          string                `json:"transaction_id"`
	Timestamp              string                `json:"timestamp"`
	Verification           verificationDTO       `json:"verification"`
	ArtisanInfo            artisanInfoDTO        `json:"artisan_info"`
	ArtInfo                artInfoDTO            `json:"art_info"`
	OriginalOnboardingData models.OnboardingData `json:"original_onboarding_data"`
	Links                  linksDTO              `json:"links"`
}

type productView struct {
	ArtisanInfo  artisanInfoDTO  `json:"artisan_info"`
	ArtInfo      productArtDTO   `json:"art_info"`
	Verification verificationDTO `json:"verification"`
	Timestamp    string          `json:"timestamp"`
}

// productArtDTO always carries the photo, even when empty.
type productArtDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Photo       string `json:"photo"`
}

type verifyCredentialRequest struct {
	Credential string `json:"credential"`
}

type verifyCredentialResponse struct {
	Valid     bool   `json:"valid"`
	PublicID  string `json:"public_id"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func transactionID(t time.Time) string {
	return "tx_" + t.UTC().Format(transactionLayout)
}

func (h *CraftIDHandler) absolute(path string) string {
	return h.baseURL + path
}

func (h *CraftIDHandler) mapCreateResponse(record *models.CraftID) createResponse {
	data := record.Onboarding()
	tx := transactionID(record.CreatedAt)

	return createResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Your CraftID for '%s' has been created successfully.", data.Art.Name),
		TransactionID: tx,
		Timestamp:     formatTimestamp(record.CreatedAt),
		Verification: verificationDTO{
			PublicID:        record.PublicID,
			PrivateKey:      record.PrivateKey,
			PublicHash:      record.PublicHash,
			VerificationURL: h.absolute("/verify/" + record.PublicID),
			QRCodeLink:      h.absolute("/verify/qr/" + record.PublicID),
		},
		ArtisanInfo: artisanInfoDTO{
			Name:     data.Artisan.Name,
			Location: data.Artisan.Location,
		},
		ArtInfo: artInfoDTO{
			Name:        data.Art.Name,
			Description: data.Art.Description,
		},
		OriginalOnboardingData: data,
		Links: linksDTO{
			TrackStatus: h.absolute("/status/" + tx),
			ShopListing: h.absolute("/shop/" + record.PublicID),
		},
	}
}

// mapProductView never exposes the private key.
func mapProductView(record *models.CraftID) productView {
	data := record.Onboarding()
	return productView{
		ArtisanInfo: artisanInfoDTO{
			Name:     data.Artisan.Name,
			Location: data.Artisan.Location,
		},
		ArtInfo: productArtDTO{
			Name:        data.Art.Name,
			Description: data.Art.Description,
			Photo:       data.Art.Photo,
		},
		Verification: verificationDTO{
			PublicID:        record.PublicID,
			PublicHash:      record.PublicHash,
			VerificationURL: "/verify/" + record.PublicID,
		},
		Timestamp: formatTimestamp(record.CreatedAt),
	}
}

// Create issues a new CraftID.
//
// POST /create
func (h *CraftIDHandler) Create(c *gin.Context) {
	var input models.OnboardingData
	if !bindJSON(c, &input) {
		return
	}

	record, err := h.svc.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.mapCreateResponse(record))
}

// AddProduct issues a CraftID or returns the existing one for the same art name.
//
// POST /add-product
func (h *CraftIDHandler) AddProduct(c *gin.Context) {
	var input models.OnboardingData
	if !bindJSON(c, &input) {
		return
	}

	record, _, err := h.svc.AddOrFetch(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, mapProductView(record))
}

// ListProducts returns the newest products first.
//
// GET /get-products?limit=N
func (h *CraftIDHandler) ListProducts(c *gin.Context) {
	limit := parseIntQuery(c, "limit", services.MaxListSize)

	records, err := h.svc.List(requestContext(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]productView, 0, len(records))
	for i := range records {
		views = append(views, mapProductView(&records[i]))
	}
	c.JSON(http.StatusOK, views)
}

// Verify returns the public view of a CraftID.
//
// GET /verify/:public_id
func (h *CraftIDHandler) Verify(c *gin.Context) {
	record, err := h.svc.Get(requestContext(c), c.Param("public_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, mapProductView(record))
}

// QRCode renders a PNG QR code encoding the verification URL of a CraftID.
//
// GET /verify/qr/:public_id
func (h *CraftIDHandler) QRCode(c *gin.Context) {
	record, err := h.svc.Get(requestContext(c), c.Param("public_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	png, err := qrcode.Encode(h.absolute("/verify/"+record.PublicID), qrcode.Medium, qrCodeSize)
	if err != nil {
		response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

// VerifyCredential checks a private key issued by the create endpoint.
//
// POST /verify/credential
func (h *CraftIDHandler) VerifyCredential(c *gin.Context) {
	var req verifyCredentialRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.svc.VerifyCredential(requestContext(c), req.Credential)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := verifyCredentialResponse{
		Valid:    status.Valid,
		PublicID: status.PublicID,
	}
	if !status.ExpiresAt.IsZero() {
		out.ExpiresAt = formatTimestamp(status.ExpiresAt)
	}
	c.JSON(http.StatusOK, out)
}
