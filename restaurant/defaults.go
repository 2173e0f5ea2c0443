package restaurant

import "github.com/shopspring/decimal"

// Fallback values applied by the normalizer when a remote row leaves a
// field empty.
const (
	DefaultItemName  = "Item sem nome"
	DefaultPax       = "2 Pessoas"
	DefaultPaxCount  = 2
	DefaultTableType = "Salão Principal"
	ImageFallback    = "https://images.unsplash.com/photo-1546069901-ba9599a7e63c"
)

func menuItem(id, name, desc, price string, cat Category, highlight bool, image string) MenuItem {
	return MenuItem{
		ID:          id,
		Name:        name,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Category:    cat,
		Highlight:   highlight,
		Image:       image,
	}
}

// DefaultMenu returns a fresh copy of the house catalog. It seeds empty
// caches, backs a menu reset and fills the remote relation on migration.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		menuItem("1", "Tomahawk Prime Ouro", "Corte nobre de 800g com osso, finalizado na manteiga de ervas e flor de sal.", "189.90", CategoryMeats, true,
			"https://images.unsplash.com/photo-1615937691194-97dbd3f3dc29?auto=format&fit=crop&q=80&w=800"),
		menuItem("2", "Bife de Chorizo Angus", "Suculência extrema, grelhado ao ponto do chef. Acompanha batatas rústicas.", "89.90", CategoryMeats, true,
			"https://images.unsplash.com/photo-1558030006-450675393462?auto=format&fit=crop&q=80&w=800"),
		menuItem("3", "Costela Defumada BBQ", "Assada lentamente por 12 horas, desmancha no garfo. Molho barbecue artesanal.", "75.00", CategoryMeats, false,
			"https://i.ibb.co/HpdPgmyb/Captura-de-tela-2026-02-01-121212.png"),
		menuItem("4", "Ancho Premium", "Corte dianteiro do contrafilé, marmoreio intenso e sabor inigualável.", "92.00", CategoryMeats, false,
			"https://images.unsplash.com/photo-1600891964092-4316c288032e?auto=format&fit=crop&q=80&w=800"),
		menuItem("5", "Nhoque ao Funghi Trufado", "Massa fresca de batata, molho cremoso de cogumelos selvagens e azeite trufado.", "68.00", CategoryPasta, true,
			"https://images.unsplash.com/photo-1551183053-bf91a1d81141?auto=format&fit=crop&q=80&w=800"),
		menuItem("6", "Carbonara Autêntica", "Sem creme de leite. Gema caipira, pecorino romano, guanciale e pimenta negra.", "62.00", CategoryPasta, true,
			"https://images.unsplash.com/photo-1588013273468-315fd88ea34c?auto=format&fit=crop&q=80&w=800"),
		menuItem("7", "Risoto de Camarão", "Arroz arbóreo, camarões rosa grandes, limão siciliano e parmesão.", "79.00", CategoryPasta, false,
			"https://images.unsplash.com/photo-1595295333158-4742f28fbd85?auto=format&fit=crop&q=80&w=800"),
		menuItem("8", "Lasanha à Bolonhesa", "Camadas finas de massa, ragu de carne cozido por 6h e molho bechamel.", "58.00", CategoryPasta, false,
			"https://images.unsplash.com/photo-1619895092538-128341789043?auto=format&fit=crop&q=80&w=800"),
		menuItem("9", "Burrata Caprese", "Burrata cremosa, tomates confit, pesto de manjericão fresco e torradas.", "55.00", CategoryStarters, true,
			"https://images.unsplash.com/photo-1563379926898-05f4575a45d8?auto=format&fit=crop&q=80&w=800"),
		menuItem("10", "Carpaccio Clássico", "Lâminas finíssimas de carne crua, alcaparras, parmesão e mostarda.", "48.00", CategoryStarters, false,
			"https://images.unsplash.com/photo-1504674900247-0877df9cc836?auto=format&fit=crop&q=80&w=800"),
		menuItem("11", "Bruschetta de Tomate", "Pão italiano tostado, tomates frescos, alho e manjericão.", "32.00", CategoryStarters, false,
			"https://trattorialapasta.com/cms-data/blog/menu/bruschetta-al-pomodoro/image/bruschetta-al-pomodoro.jpg"),
		menuItem("12", "Dadinhos de Queijo Coalho", "Crocantes por fora, macios por dentro. Acompanha geleia de pimenta.", "35.00", CategoryStarters, false,
			"https://images.unsplash.com/photo-1548340748-6d2b7d7da280?auto=format&fit=crop&q=80&w=800"),
		menuItem("13", "Vulcão de Doce de Leite", "Petit gateau de doce de leite argentino com sorvete de baunilha.", "32.00", CategoryDesserts, true,
			"https://images.unsplash.com/photo-1624353365286-3f8d62daad51?auto=format&fit=crop&q=80&w=800"),
		menuItem("14", "Tiramisu Fuego", "A clássica receita italiana com um toque de conhaque.", "28.00", CategoryDesserts, false,
			"https://desxestal.com/wp-content/uploads/2021/04/desxestal_tiramisu-scaled.jpg"),
		menuItem("15", "Cheesecake de Frutas Vermelhas", "Base crocante, creme suave e calda rústica de frutas.", "29.00", CategoryDesserts, false,
			"https://images.unsplash.com/photo-1524351199678-941a58a3df50?auto=format&fit=crop&q=80&w=800"),
		menuItem("16", "Malbec Reserva", "Vinho tinto encorpado, notas de ameixa e baunilha. Safra especial.", "140.00", CategoryWines, false,
			"https://images.unsplash.com/photo-1510812431401-41d2bd2722f3?auto=format&fit=crop&q=80&w=800"),
		menuItem("17", "Drink Autoral Fuego", "Gin, infusão de hibisco, tônica e defumação de alecrim.", "38.00", CategoryWines, true,
			"https://images.unsplash.com/photo-1556679343-c7306c1976bc?auto=format&fit=crop&q=80&w=800"),
	}
}
