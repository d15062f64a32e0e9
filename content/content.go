// Package content 营销页面上的静态内容
package content

type Feature struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UseCase struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

type PricingPlan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Period      string   `json:"period"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features"`
	Button      string   `json:"button"`
	Popular     bool     `json:"popular,omitempty"`
}

type Step struct {
	Step        string `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Site struct {
	Steps    []Step        `json:"steps"`
	Features []Feature     `json:"features"`
	UseCases []UseCase     `json:"useCases"`
	Pricing  []PricingPlan `json:"pricing"`
}

func Default() Site {
	return Site{
		Steps: []Step{
			{"01", "Upload your image", "Select a photo from your device or take a fresh one using your camera."},
			{"02", "Wait for the magic", "Our AI identifies the subject and isolates it from the background in real-time."},
			{"03", "Download transparent", "Save your result as a high-quality PNG with true transparency."},
		},
		Features: []Feature{
			{"instant", "✨", "Instant Removal", "No waiting around. Most images process in under 3 seconds."},
			{"edges", "🔍", "Edge Detection", "Our advanced models handle hair, shadows, and glass perfectly."},
			{"api", "📦", "API Access", "Integrate our background removal directly into your own app or site."},
			{"ecommerce", "🎨", "E-commerce Ready", "Export images that meet major marketplace requirements instantly."},
			{"batch", "⚡", "Batch Editing", "Upload folders of images and let our AI handle the rest in the background."},
			{"privacy", "💻", "Privacy First", "Your images are processed securely and never shared with third parties."},
		},
		UseCases: []UseCase{
			{"products", "Products", "https://images.unsplash.com/photo-1542291026-7eec264c27ff?q=80&w=600&auto=format&fit=crop", "E-commerce"},
			{"portraits", "Portraits", "https://images.unsplash.com/photo-1534528741775-53994a69daeb?q=80&w=600&auto=format&fit=crop", "Profiles"},
			{"social", "Social Media", "https://images.unsplash.com/photo-1494790108377-be9c29b29330?q=80&w=600&auto=format&fit=crop", "Marketing"},
			{"design", "Design", "https://images.unsplash.com/photo-1561070791-2526d30994b5?q=80&w=600&auto=format&fit=crop", "Creatives"},
		},
		Pricing: []PricingPlan{
			{
				ID: "starter", Name: "Starter", Price: "Free", Period: "Forever",
				Features: []string{"5 images / month", "Standard resolution", "Transparent PNG", "Community support"},
				Button:   "Start for Free",
			},
			{
				ID: "pro", Name: "Pro", Price: "$19", Period: "per month",
				Features: []string{"100 images / month", "HD Resolution", "Priority processing", "Batch upload tools", "No watermarks"},
				Button:   "Choose Pro",
				Popular:  true,
			},
			{
				ID: "scale", Name: "Scale", Price: "$49", Period: "per month",
				Features: []string{"Unlimited images", "API Access", "4K High-Res", "Dedicated account mgr", "24/7 Priority support"},
				Button:   "Talk to Sales",
			},
		},
	}
}
