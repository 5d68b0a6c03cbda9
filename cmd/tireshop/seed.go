package main

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/service"
)

type seedFile struct {
	Shop     seedShop      `yaml:"shop"`
	Services []seedService `yaml:"services"`
	Tires    []seedTire    `yaml:"tires"`
}

type seedShop struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	TaxRate  string `yaml:"tax_rate"`
	Currency string `yaml:"currency"`
}

type seedService struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	PriceType   string `yaml:"price_type"`
	Taxable     bool   `yaml:"taxable"`
}

type seedTire struct {
	Brand       string `yaml:"brand"`
	Model       string `yaml:"model"`
	Size        string `yaml:"size"`
	Quantity    int    `yaml:"quantity"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// seedData is a parsed seed file, ready to hand to the services.
type seedData struct {
	Shop     *models.Shop
	Services []*models.ServiceInput
	Tires    []*models.TireInput
}

func seedCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a shop with its catalog and inventory from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return errors.Wrap(err, "open seed file")
			}
			defer f.Close()

			data, err := parseSeed(f)
			if err != nil {
				return err
			}

			db, err := repository.OpenPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			return seed(cmd.Context(),
				service.NewShopService(repository.NewPostgresShopRepository(db), nil, nil),
				service.NewCatalogService(repository.NewPostgresCatalogRepository(db), nil, nil),
				service.NewInventoryService(repository.NewPostgresInventoryRepository(db), nil, nil),
				data,
			)
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "seed.example.yaml", "Seed file")
	return cmd
}

func parseSeed(r io.Reader) (*seedData, error) {
	var raw seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode seed file")
	}

	if raw.Shop.Name == "" {
		return nil, errors.New("shop.name is required")
	}
	rate, err := parseAmount(raw.Shop.TaxRate, "shop.tax_rate")
	if err != nil {
		return nil, err
	}
	data := &seedData{
		Shop: &models.Shop{
			ID:       raw.Shop.ID,
			Name:     raw.Shop.Name,
			TaxRate:  rate,
			Currency: raw.Shop.Currency,
		},
	}

	for i, s := range raw.Services {
		price, err := parseAmount(s.Price, "services.price")
		if err != nil {
			return nil, errors.Wrapf(err, "service %d", i)
		}
		priceType := pricing.PriceTypeFlat
		if s.PriceType != "" {
			if priceType, err = pricing.ParsePriceType(s.PriceType); err != nil {
				return nil, errors.Wrapf(err, "service %d", i)
			}
		}
		data.Services = append(data.Services, &models.ServiceInput{
			Name:        s.Name,
			Description: s.Description,
			Price:       price,
			PriceType:   priceType,
			IsTaxable:   s.Taxable,
		})
	}

	for i, t := range raw.Tires {
		price, err := parseAmount(t.Price, "tires.price")
		if err != nil {
			return nil, errors.Wrapf(err, "tire %d", i)
		}
		data.Tires = append(data.Tires, &models.TireInput{
			Brand:       t.Brand,
			Model:       t.Model,
			Size:        t.Size,
			Quantity:    t.Quantity,
			Price:       price,
			Description: t.Description,
		})
	}
	return data, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "%s %q", field, s)
	}
	return v, nil
}

func seed(ctx context.Context, shops *service.ShopService, catalog *service.CatalogService, inventory *service.InventoryService, data *seedData) error {
	logger := logging.New("seed")

	if err := shops.Create(ctx, data.Shop); err != nil {
		return errors.Wrap(err, "create shop")
	}
	for _, in := range data.Services {
		if _, err := catalog.Create(ctx, data.Shop.ID, in); err != nil {
			return errors.Wrapf(err, "create service %q", in.Name)
		}
	}
	for _, in := range data.Tires {
		if _, err := inventory.Create(ctx, data.Shop.ID, in); err != nil {
			return errors.Wrapf(err, "create tire %s %s", in.Brand, in.Model)
		}
	}

	logger.WithFields(logging.Fields{
		"shop_id":  data.Shop.ID,
		"services": len(data.Services),
		"tires":    len(data.Tires),
	}).Info("Seed loaded")
	return nil
}
