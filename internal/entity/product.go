package entity

// Product is the catalog row. Price fields are in the smallest currency unit
// (no fractional amounts are stored anywhere).
type Product struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           int    `json:"price"`
	Stock           int    `json:"stock"`
	CategoryID      int    `json:"category_id"`
	DiscountPercent int    `json:"discount_percent"`
	DiscountedPrice int    `json:"discounted_price"`
	ImageURL        string `json:"image_url"`
}

// UnitPrice returns the price a buyer pays for one unit: the discounted
// price when a valid discount is set, the list price otherwise.
func (p *Product) UnitPrice() int {
	if p.DiscountedPrice > 0 && p.DiscountedPrice <= p.Price {
		return p.DiscountedPrice
	}
	return p.Price
}

/*
Mysql Table

CREATE TABLE products (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	price INT NOT NULL,
	stock INT NOT NULL CHECK (stock >= 0),
	category_id INT NOT NULL,
	discount_percent INT NOT NULL DEFAULT 0,
	discounted_price INT NOT NULL DEFAULT 0,
	image_url VARCHAR(512) NOT NULL DEFAULT ''
);
*/
