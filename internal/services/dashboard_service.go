package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"estoque/internal/cache"
	"estoque/internal/models"
	"estoque/internal/repositories"
)

const dashboardCacheKey = "dashboard:v1"

// DashboardService builds read-only rollups over sales and products. Results
// may be cached; staleness within the TTL is acceptable for this surface.
type DashboardService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	cache       cache.Cache // nil disables caching
	cacheTTL    time.Duration
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(saleRepo repositories.SaleRepository, productRepo repositories.ProductRepository, c cache.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		cache:       c,
		cacheTTL:    ttl,
	}
}

// KPIs are the headline dashboard figures. TotalRevenue excludes cancelled
// sales.
type KPIs struct {
	TotalSales       int64   `json:"total_sales"`
	PendingSales     int64   `json:"pending_sales"`
	ConfirmedSales   int64   `json:"confirmed_sales"`
	CancelledSales   int64   `json:"cancelled_sales"`
	DeliveredSales   int64   `json:"delivered_sales"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalProducts    int64   `json:"total_products"`
	TotalCustomers   int64   `json:"total_customers"`
	LowStockProducts int     `json:"low_stock_products"`
	PendingOrders    int64   `json:"pending_orders"`
}

// RecentSale is one row of the latest-sales widget.
type RecentSale struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	Customer   string            `json:"customer"`
	TotalValue float64           `json:"total_value"`
	Status     models.SaleStatus `json:"status"`
	Date       time.Time         `json:"date"`
}

// TopProduct is one row of the best-sellers widget.
type TopProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Sold     int     `json:"sold"`
	Revenue  float64 `json:"revenue"`
}

// LowStockProduct is one row of the critical stock widget. The list uses the
// global critical threshold, not each product's MinStock; MinStock is shown
// alongside so the divergence stays visible to operators.
type LowStockProduct struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	MinStock int    `json:"min_stock"`
	Category string `json:"category"`
}

// CategorySales is revenue attributed to one category.
type CategorySales struct {
	Category   string  `json:"category"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// MonthlyPoint is one month of the trend chart.
type MonthlyPoint struct {
	Month   string  `json:"month"`
	Sales   int     `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// DashboardData is the full dashboard payload.
type DashboardData struct {
	KPIs             KPIs              `json:"kpis"`
	RecentSales      []RecentSale      `json:"recent_sales"`
	TopProducts      []TopProduct      `json:"top_products"`
	LowStockProducts []LowStockProduct `json:"low_stock_products"`
	SalesByCategory  []CategorySales   `json:"sales_by_category"`
	MonthlyTrend     []MonthlyPoint    `json:"monthly_trend"`
}

// GetDashboard returns the dashboard payload, served from cache when fresh.
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, dashboardCacheKey); err != nil {
			log.Printf("Warning: dashboard cache read failed: %v", err)
		} else if ok {
			var data DashboardData
			if err := json.Unmarshal([]byte(raw), &data); err == nil {
				return &data, nil
			}
		}
	}

	data, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(data); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, string(raw), s.cacheTTL); err != nil {
				log.Printf("Warning: dashboard cache write failed: %v", err)
			}
		}
	}
	return data, nil
}

// RefreshDashboard busts the cache and rebuilds the payload.
func (s *DashboardService) RefreshDashboard(ctx context.Context) (*DashboardData, error) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
			log.Printf("Warning: dashboard cache delete failed: %v", err)
		}
	}
	return s.GetDashboard(ctx)
}

// GetKPIs computes only the headline figures.
func (s *DashboardService) GetKPIs(ctx context.Context) (*KPIs, error) {
	return s.kpis(ctx)
}

func (s *DashboardService) kpis(ctx context.Context) (*KPIs, error) {
	var k KPIs
	var err error

	if k.TotalSales, err = s.saleRepo.Count(ctx); err != nil {
		return nil, err
	}
	if k.PendingSales, err = s.saleRepo.CountByStatus(ctx, models.StatusPending); err != nil {
		return nil, err
	}
	if k.ConfirmedSales, err = s.saleRepo.CountByStatus(ctx, models.StatusConfirmed); err != nil {
		return nil, err
	}
	if k.CancelledSales, err = s.saleRepo.CountByStatus(ctx, models.StatusCancelled); err != nil {
		return nil, err
	}
	if k.DeliveredSales, err = s.saleRepo.CountByStatus(ctx, models.StatusDelivered); err != nil {
		return nil, err
	}
	if k.TotalRevenue, err = s.saleRepo.RevenueTotal(ctx); err != nil {
		return nil, err
	}
	if k.TotalProducts, err = s.productRepo.Count(ctx); err != nil {
		return nil, err
	}
	if k.TotalCustomers, err = s.saleRepo.DistinctCustomers(ctx); err != nil {
		return nil, err
	}

	critical, err := s.productRepo.CriticalStock(ctx, 0)
	if err != nil {
		return nil, err
	}
	k.LowStockProducts = len(critical)
	k.PendingOrders = k.PendingSales
	return &k, nil
}

func (s *DashboardService) build(ctx context.Context) (*DashboardData, error) {
	kpis, err := s.kpis(ctx)
	if err != nil {
		return nil, err
	}
	data := &DashboardData{KPIs: *kpis}

	recent, err := s.saleRepo.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	for _, sale := range recent {
		data.RecentSales = append(data.RecentSales, RecentSale{
			ID:         sale.ID,
			Code:       sale.Code,
			Customer:   sale.Customer,
			TotalValue: sale.TotalValue,
			Status:     sale.Status,
			Date:       sale.Date,
		})
	}

	topTotals, err := s.saleRepo.TopProducts(ctx, 5)
	if err != nil {
		return nil, err
	}
	for _, row := range topTotals {
		top := TopProduct{ID: row.ProductID, Name: "unknown product", Sold: row.Quantity}
		if product, err := s.productRepo.GetByID(ctx, row.ProductID); err == nil {
			top.Name = product.Title
			top.Revenue = product.SalePrice * float64(row.Quantity)
			if product.Category != nil {
				top.Category = product.Category.Name
			}
		}
		data.TopProducts = append(data.TopProducts, top)
	}

	critical, err := s.productRepo.CriticalStock(ctx, 10)
	if err != nil {
		return nil, err
	}
	for _, product := range critical {
		row := LowStockProduct{
			ID:       product.ID,
			Title:    product.Title,
			Quantity: product.Quantity,
			MinStock: product.MinStock,
		}
		if product.Category != nil {
			row.Category = product.Category.Name
		}
		data.LowStockProducts = append(data.LowStockProducts, row)
	}

	allSales, err := s.saleRepo.ListBetween(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	data.SalesByCategory = salesByCategory(allSales)
	data.MonthlyTrend = monthlyTrend(allSales, time.Now())

	return data, nil
}

// salesByCategory attributes item revenue to each product's category.
func salesByCategory(sales []models.Sale) []CategorySales {
	byCategory := make(map[string]float64)
	var order []string
	var total float64

	for _, sale := range sales {
		for _, item := range sale.Items {
			name := "uncategorized"
			if item.Product != nil && item.Product.Category != nil {
				name = item.Product.Category.Name
			}
			if _, seen := byCategory[name]; !seen {
				order = append(order, name)
			}
			revenue := item.UnitPrice * float64(item.Quantity)
			byCategory[name] += revenue
			total += revenue
		}
	}

	result := make([]CategorySales, 0, len(order))
	for _, name := range order {
		row := CategorySales{Category: name, Value: byCategory[name]}
		if total > 0 {
			row.Percentage = byCategory[name] / total * 100
		}
		result = append(result, row)
	}
	return result
}

// monthlyTrend buckets non-cancelled sales into the last five calendar
// months, oldest first. Months without sales appear as zero points.
func monthlyTrend(sales []models.Sale, now time.Time) []MonthlyPoint {
	type bucket struct {
		sales   int
		revenue float64
	}
	buckets := make(map[string]*bucket)

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -4, 0)
	for _, sale := range sales {
		if sale.Status == models.StatusCancelled || sale.Date.Before(start) {
			continue
		}
		key := sale.Date.Format("2006-01")
		if buckets[key] == nil {
			buckets[key] = &bucket{}
		}
		buckets[key].sales++
		buckets[key].revenue += sale.TotalValue
	}

	points := make([]MonthlyPoint, 0, 5)
	for i := 0; i < 5; i++ {
		month := start.AddDate(0, i, 0)
		point := MonthlyPoint{Month: month.Format("Jan")}
		if b := buckets[month.Format("2006-01")]; b != nil {
			point.Sales = b.sales
			point.Revenue = b.revenue
		}
		points = append(points, point)
	}
	return points
}
