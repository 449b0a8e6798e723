package catalogservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Client клиент для работы с CatalogService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CatalogService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetService получает услугу по ID
func (c *Client) GetService(ctx context.Context, serviceID int64) (*Service, error) {
	url := fmt.Sprintf("%s/internal/services/%d", c.baseURL, serviceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid service ID format", ErrInvalidResponse)
	case http.StatusNotFound:
		return nil, ErrServiceNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var service Service
	if err := json.NewDecoder(resp.Body).Decode(&service); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if service.ProviderID <= 0 {
		return nil, fmt.Errorf("%w: service id=%d has no provider", ErrInvalidResponse, serviceID)
	}

	return &service, nil
}

// GetServiceProvider возвращает ID исполнителя услуги
func (c *Client) GetServiceProvider(ctx context.Context, serviceID int64) (int64, error) {
	service, err := c.GetService(ctx, serviceID)
	if err != nil {
		return 0, err
	}
	return service.ProviderID, nil
}

// GetServiceDuration возвращает длительность слота услуги в часах (не меньше одного часа)
func (c *Client) GetServiceDuration(ctx context.Context, serviceID int64) (int, error) {
	_, duration, err := c.GetServiceSlot(ctx, serviceID)
	return duration, err
}

// GetServiceSlot возвращает исполнителя и длительность слота одним запросом к CatalogService
func (c *Client) GetServiceSlot(ctx context.Context, serviceID int64) (int64, int, error) {
	service, err := c.GetService(ctx, serviceID)
	if err != nil {
		return 0, 0, err
	}
	return service.ProviderID, c.slotDuration(service), nil
}

func (c *Client) slotDuration(service *Service) int {
	if service.DurationHours == nil {
		c.log.Info("CatalogService: service id=%d has no duration, using %dh", service.ID, domain.MinSlotDurationHours)
		return domain.MinSlotDurationHours
	}
	return domain.NormalizeDuration(*service.DurationHours)
}
