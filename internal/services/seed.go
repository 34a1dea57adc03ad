package services

import (
	"fmt"
	"time"

	domain "github.com/feastly/api/internal/domain"
)

// StarterMenu returns the fixed catalog used to seed an empty store.
func StarterMenu(now time.Time) []domain.MenuItem {
	items := []domain.MenuItem{
		{
			Name: "Truffle Burger", Price: 15.99, Category: "Burgers",
			Description: "Wagyu beef with truffle oil.",
			Image:       "https://images.unsplash.com/photo-1568901346375-23c9450c58cd",
			MoodTags:    []string{"Celebrating", "Hungover"},
			Ingredients: []domain.Ingredient{
				{Name: "Wagyu Beef", Origin: "Hyogo, Japan"},
				{Name: "Truffle Oil", Origin: "Alba, Italy"},
			},
		},
		{
			Name: "Margherita Pizza", Price: 12.50, Category: "Pizza",
			Description: "Fresh basil and buffalo mozzarella.",
			Image:       "https://images.unsplash.com/photo-1604382354936-07c5d9983bd3",
			MoodTags:    []string{"Lazy", "Celebrating"},
			Ingredients: []domain.Ingredient{{Name: "Mozzarella", Origin: "Campania, Italy"}},
		},
		{
			Name: "Pasta Carbonara", Price: 14.00, Category: "Pasta",
			Description: "Creamy sauce with crispy pancetta.",
			Image:       "https://images.unsplash.com/photo-1612874742237-6526221588e3",
			MoodTags:    []string{"Hungover", "Lazy"},
			Ingredients: []domain.Ingredient{{Name: "Pancetta", Origin: "Emilia-Romagna"}},
		},
		{
			Name: "Caesar Salad", Price: 9.99, Category: "Salads",
			Description: "Romaine lettuce with parmesan.",
			Image:       "https://images.unsplash.com/photo-1550304943-4f24f54ddde9",
			MoodTags:    []string{"Healthy"},
			Ingredients: []domain.Ingredient{{Name: "Romaine", Origin: "California Central Valley"}},
		},
		{
			Name: "Sushi Platter", Price: 22.00, Category: "Japanese",
			Description: "Chef selection of fresh rolls.",
			Image:       "https://images.unsplash.com/photo-1579871494447-9811cf80d66c",
			MoodTags:    []string{"Celebrating", "Healthy"},
			Ingredients: []domain.Ingredient{{Name: "Bluefin Tuna", Origin: "Toyosu Market, Tokyo"}},
		},
		{
			Name: "Chicken Wings", Price: 11.00, Category: "Appetizers",
			Description: "Spicy buffalo sauce with dip.",
			Image:       "https://images.unsplash.com/photo-1567620832903-9fc6debc209f",
			MoodTags:    []string{"Celebrating", "Hungover"},
		},
		{
			Name: "Chocolate Lava Cake", Price: 7.50, Category: "Dessert",
			Description: "Warm chocolate center.",
			Image:       "https://images.unsplash.com/photo-1563805042-7684c019e1cb",
			MoodTags:    []string{"Celebrating", "Lazy"},
		},
		{
			Name: "Garlic Bread", Price: 4.99, Category: "Appetizers",
			Description: "Toasted with herb butter.",
			Image:       "https://images.unsplash.com/photo-1573140247632-f8fd74997d5c",
			MoodTags:    []string{"Lazy"},
		},
		{
			Name: "Mango Smoothie", Price: 5.50, Category: "Drinks",
			Description: "Fresh mango and yogurt.",
			Image:       "https://images.unsplash.com/photo-1623065422902-30a2d299bbe4",
			MoodTags:    []string{"Healthy", "Tired"},
		},
		{
			Name: "BBQ Ribs", Price: 19.99, Category: "Mains",
			Description: "Slow cooked pork ribs.",
			Image:       "https://images.unsplash.com/photo-1544025162-d76694265947",
			MoodTags:    []string{"Celebrating", "Lazy"},
		},
		{
			Name: "Avocado Toast", Price: 10.50, Category: "Breakfast",
			Description: "Sourdough with poached egg.",
			Image:       "https://images.unsplash.com/photo-1525351484163-7529414344d8",
			MoodTags:    []string{"Healthy", "Tired"},
			Ingredients: []domain.Ingredient{{Name: "Hass Avocado", Origin: "Michoacán, Mexico"}},
		},
		{
			Name: "Pepperoni Pizza", Price: 13.99, Category: "Pizza",
			Description: "Classic spicy pepperoni.",
			Image:       "https://images.unsplash.com/photo-1628840042765-356cda07504e",
			MoodTags:    []string{"Hungover", "Celebrating"},
		},
		{
			Name: "Ribeye Steak", Price: 28.00, Category: "Mains",
			Description: "Grilled with rosemary butter.",
			Image:       "https://images.unsplash.com/photo-1600891964092-4316c288032e",
			MoodTags:    []string{"Celebrating"},
		},
		{
			Name: "Greek Salad", Price: 10.00, Category: "Salads",
			Description: "Feta, olives, and cucumber.",
			Image:       "https://images.unsplash.com/photo-1540189549336-e6e99c3679fe",
			MoodTags:    []string{"Healthy"},
		},
		{
			Name: "Iced Caramel Latte", Price: 4.50, Category: "Drinks",
			Description: "Espresso with caramel drizzle.",
			Image:       "https://images.unsplash.com/photo-1461023058943-07fcbe16d735",
			MoodTags:    []string{"Tired"},
			Ingredients: []domain.Ingredient{{Name: "Coffee Beans", Origin: "Ethiopian Highlands"}},
		},
		{
			Name: "Fish and Chips", Price: 16.50, Category: "Mains",
			Description: "Crispy cod with tartar sauce.",
			Image:       "https://images.unsplash.com/photo-1519708227418-c8fd9a32b7a2",
			MoodTags:    []string{"Hungover", "Lazy"},
		},
		{
			Name: "Shrimp Tacos", Price: 14.50, Category: "Mexican",
			Description: "Zesty shrimp with lime slaw.",
			Image:       "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38",
			MoodTags:    []string{"Healthy", "Celebrating"},
		},
		{
			Name: "Red Velvet Cupcake", Price: 3.99, Category: "Dessert",
			Description: "Cream cheese frosting.",
			Image:       "https://images.unsplash.com/photo-1587314168485-3236d6710814",
			MoodTags:    []string{"Celebrating"},
		},
		{
			Name: "Paneer Tikka", Price: 12.00, Category: "Indian",
			Description: "Grilled cottage cheese cubes.",
			Image:       "https://images.unsplash.com/photo-1599487488170-d11ec9c172f0",
			MoodTags:    []string{"Healthy", "Lazy"},
		},
		{
			Name: "Dim Sum Box", Price: 18.00, Category: "Chinese",
			Description: "Variety of steamed dumplings.",
			Image:       "https://images.unsplash.com/photo-1496116218417-1a781b1c416c",
			MoodTags:    []string{"Healthy", "Lazy"},
		},
	}

	for i := range items {
		items[i].Available = true
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
	}
	return items
}

// FallbackMenu is the starter menu with synthetic IDs, served directly from
// memory when the store is unreachable.
func FallbackMenu(now time.Time) []domain.MenuItem {
	items := StarterMenu(now)
	for i := range items {
		items[i].ID = fmt.Sprintf("fallback_%d", i)
	}
	return items
}
