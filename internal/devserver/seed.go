package devserver

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/resourcemart/storefront/internal/models"
)

var seedCategories = []string{"前端开发", "后端开发", "UI设计", "数据分析"}

var seedTypes = []models.ResourceType{
	models.TypeVideo,
	models.TypeSoftware,
	models.TypeDocument,
	models.TypeArticle,
	models.TypeFile,
}

// Seed fills an empty database with n sample resources and a demo
// account (demo / demo1234). Existing data is left alone.
func Seed(db *gorm.DB, n int) error {
	var count int64
	if err := db.Model(&ResourceRow{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count resources: %w", err)
	}
	if count > 0 {
		return nil
	}

	base := time.Now().UTC().Add(-time.Duration(n) * time.Hour)
	rows := make([]ResourceRow, 0, n)
	for i := 0; i < n; i++ {
		tags, _ := json.Marshal([]string{"starter", seedCategories[i%len(seedCategories)]})
		price := float64(10 + (i%50)*10)
		var orig *float64
		if i%3 == 0 {
			v := price * 1.5
			orig = &v
		}
		rows = append(rows, ResourceRow{
			ID:             fmt.Sprintf("res-%04d", i+1),
			Title:          fmt.Sprintf("Resource %d", i+1),
			Description:    fmt.Sprintf("Sample resource number %d", i+1),
			Category:       seedCategories[i%len(seedCategories)],
			Type:           string(seedTypes[i%len(seedTypes)]),
			Price:          price,
			OriginalPrice:  orig,
			AuthorID:       fmt.Sprintf("author-%d", i%7),
			AuthorName:     fmt.Sprintf("Author %d", i%7),
			AuthorVerified: i%2 == 0,
			Downloads:      int64(1000 - i*3),
			Views:          int64(5000 - i*11),
			Rating:         float64(i%6) * 0.9,
			ReviewCount:    int64(i % 40),
			Tags:           string(tags),
			Thumbnail:      fmt.Sprintf("/thumbs/res-%04d.png", i+1),
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
			UpdatedAt:      base.Add(time.Duration(i) * time.Hour),
		})
	}
	if err := db.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("seed: insert resources: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}
	acc := Account{Username: "demo", PasswordHash: string(hash)}
	if err := db.Create(&acc).Error; err != nil {
		return fmt.Errorf("seed: insert account: %w", err)
	}
	return nil
}
