package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type assetView struct {
	ID          uint64 `json:"id"`
	Owner       string `json:"owner"`
	MetadataURI string `json:"metadataURI"`
}

func (h *restHandlers) assetRoutes(r chi.Router) {
	r.Get("/{assetID}", h.getAsset)
	r.Get("/{assetID}/owner", h.getAssetOwner)
	r.Get("/{assetID}/fraction", h.getAssetFraction)
	r.Get("/owned/{address}", h.getAssetsOwned)
}

func (h *restHandlers) getAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	asset, err := h.node.GetAsset(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, assetView{
		ID:          asset.ID,
		Owner:       asset.Owner.String(),
		MetadataURI: asset.MetadataURI,
	})
}

func (h *restHandlers) getAssetOwner(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	owner, err := h.node.AssetOwner(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"owner": owner.String()})
}

func (h *restHandlers) getAssetFraction(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	tokenID, err := h.node.GetFractionalizer(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]uint64{"tokenId": tokenID})
}

func (h *restHandlers) getAssetsOwned(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(r, "address")
	if !ok {
		respondBadPath(w, "address")
		return
	}
	assets, err := h.node.AssetsOwnedBy(owner)
	if err != nil {
		respondError(w, err)
		return
	}
	if assets == nil {
		assets = []uint64{}
	}
	respondJSON(w, http.StatusOK, map[string][]uint64{"assetIds": assets})
}

type priceView struct {
	AssetID uint64 `json:"assetId"`
	Price   string `json:"price"`
}

func (h *restHandlers) priceRoutes(r chi.Router) {
	r.Get("/", h.listPrices)
	r.Get("/{assetID}", h.getPrice)
}

func (h *restHandlers) listPrices(w http.ResponseWriter, _ *http.Request) {
	quotes, err := h.node.ListPrices()
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]priceView, 0, len(quotes))
	for _, quote := range quotes {
		views = append(views, priceView{AssetID: quote.AssetID, Price: quote.Price.String()})
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *restHandlers) getPrice(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	price, err := h.node.GetPrice(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, priceView{AssetID: assetID, Price: price.String()})
}
