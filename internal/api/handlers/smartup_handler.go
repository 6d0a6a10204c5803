package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/config"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/creds"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/httpx"
	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/smartup"
)

// SmartUpHandler proxies the SmartUp catalog for the session's credentials.
type SmartUpHandler struct {
	store    creds.Store
	http     *httpx.Client
	defaults config.SmartUpConfig
}

func NewSmartUpHandler(store creds.Store, httpClient *httpx.Client, defaults config.SmartUpConfig) *SmartUpHandler {
	return &SmartUpHandler{store: store, http: httpClient, defaults: defaults}
}

func (h *SmartUpHandler) client(stored creds.SmartUpCreds) *smartup.Client {
	serverURL := stored.ServerURL
	if serverURL == "" {
		serverURL = h.defaults.DefaultServerURL
	}
	apiPath := stored.APIPath
	if apiPath == "" {
		apiPath = h.defaults.DefaultAPIPath
	}
	return smartup.NewClient(h.http, smartup.Credentials{
		Login:     stored.Login,
		Password:  stored.Password,
		ServerURL: serverURL,
		APIPath:   apiPath,
	})
}

func (h *SmartUpHandler) GetProducts(c *gin.Context) {
	stored, ok := smartUpCreds(c, h.store)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("search")

	list, err := h.client(stored).Products(c.Request.Context(), limit, offset, search)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *SmartUpHandler) TestConnection(c *gin.Context) {
	stored, ok := smartUpCreds(c, h.store)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.client(stored).TestConnection(c.Request.Context()))
}
