// Package composer implements the read-model projector's read-through
// composition: fetching an offering and every specification,
// characteristic, and price it references from their owning writer
// services over HTTP, behind a per-upstream circuit breaker.
package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/circuitbreaker"
	"github.com/productcatalog/platform/pkg/httpclient"
	"github.com/productcatalog/platform/pkg/mmodel"
)

// Upstreams carries the base URL of each writer service the composer
// reads through to.
type Upstreams struct {
	Offering       string
	Specification  string
	Characteristic string
	Pricing        string
}

// Composer implements services.Composer.
type Composer struct {
	Client       *httpclient.Client
	Breakers     *circuitbreaker.Registry
	Upstreams    Upstreams
	ServiceToken string
}

// Compose fetches offeringID and every specification/characteristic/price
// it references, mirroring the original system's fetch_offering_details
// fan-out.
func (c *Composer) Compose(ctx context.Context, offeringID string) (mmodel.DenormalizedOffering, error) {
	var offering mmodel.Offering

	url := fmt.Sprintf("%s/api/v1/offerings/%s", c.Upstreams.Offering, offeringID)
	if err := c.getJSON(ctx, "offering", url, &offering); err != nil {
		return mmodel.DenormalizedOffering{}, err
	}

	specs := make([]mmodel.DenormalizedSpecification, 0, len(offering.SpecificationRefs))

	for _, specID := range offering.SpecificationRefs {
		spec, err := c.fetchSpecification(ctx, specID)
		if err != nil {
			return mmodel.DenormalizedOffering{}, err
		}

		specs = append(specs, spec)
	}

	prices := make([]mmodel.DenormalizedPrice, 0, len(offering.PriceRefs))

	for _, priceID := range offering.PriceRefs {
		var price mmodel.Price

		url := fmt.Sprintf("%s/api/v1/prices/%s", c.Upstreams.Pricing, priceID)
		if err := c.getJSON(ctx, "pricing", url, &price); err != nil {
			return mmodel.DenormalizedOffering{}, err
		}

		prices = append(prices, mmodel.DenormalizedPrice{
			ID:       price.ID,
			Name:     price.Name,
			Value:    price.Value.String(),
			Currency: price.Currency,
			Unit:     price.Unit,
		})
	}

	return mmodel.DenormalizedOffering{
		ID:              offering.ID,
		Name:            offering.Name,
		Description:     offering.Description,
		LifecycleStatus: offering.LifecycleStatus,
		Channels:        offering.SalesChannels,
		Specifications:  specs,
		Pricing:         prices,
		ComposedAt:      time.Now().UTC(),
	}, nil
}

func (c *Composer) fetchSpecification(ctx context.Context, specID string) (mmodel.DenormalizedSpecification, error) {
	var spec mmodel.Specification

	url := fmt.Sprintf("%s/api/v1/specifications/%s", c.Upstreams.Specification, specID)
	if err := c.getJSON(ctx, "specification", url, &spec); err != nil {
		return mmodel.DenormalizedSpecification{}, err
	}

	chars := make([]mmodel.DenormalizedCharacteristic, 0, len(spec.CharacteristicRefs))

	for _, charID := range spec.CharacteristicRefs {
		var characteristic mmodel.Characteristic

		url := fmt.Sprintf("%s/api/v1/characteristics/%s", c.Upstreams.Characteristic, charID)
		if err := c.getJSON(ctx, "characteristic", url, &characteristic); err != nil {
			return mmodel.DenormalizedSpecification{}, err
		}

		chars = append(chars, mmodel.DenormalizedCharacteristic{
			ID:    characteristic.ID,
			Name:  characteristic.Name,
			Value: characteristic.Value,
			Unit:  characteristic.Unit,
		})
	}

	return mmodel.DenormalizedSpecification{ID: spec.ID, Name: spec.Name, Characteristics: chars}, nil
}

func (c *Composer) getJSON(ctx context.Context, upstream, url string, out any) error {
	err := c.Breakers.Execute(ctx, upstream, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("composer: failed to build request to %s: %w", upstream, err)
		}

		req.Header.Set("X-Internal-Token", c.ServiceToken)

		resp, err := c.Client.Do(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return apperrors.NotFoundError{EntityType: upstream, ID: url}
		}

		if resp.StatusCode >= 300 {
			return fmt.Errorf("composer: %s returned status %d", upstream, resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	})

	if circuitbreaker.IsOpenError(err) {
		return apperrors.UpstreamUnavailableError{Upstream: upstream, Cause: err}
	}

	return err
}
