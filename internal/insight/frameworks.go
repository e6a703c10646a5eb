package insight

// Kind classifies a framework for style selection and recommendations.
type Kind int

const (
	KindLibrary Kind = iota
	KindUI
	KindServer
	KindMeta
	KindTyping
	KindTest
	KindLint
	KindState
	KindData
)

// Framework is a known dependency with its display label.
type Framework struct {
	Label string
	Kind  Kind
}

// frameworkTable maps lowercased dependency names to frameworks.
var frameworkTable = map[string]Framework{
	// client UI
	"react":         {"React", KindUI},
	"vue":           {"Vue.js", KindUI},
	"@angular/core": {"Angular", KindUI},
	"svelte":        {"Svelte", KindUI},
	"preact":        {"Preact", KindUI},
	"solid-js":      {"SolidJS", KindUI},
	"flutter":       {"Flutter", KindUI},

	// server
	"express":                     {"Express.js", KindServer},
	"koa":                         {"Koa", KindServer},
	"fastify":                     {"Fastify", KindServer},
	"@nestjs/core":                {"NestJS", KindServer},
	"@hapi/hapi":                  {"Hapi", KindServer},
	"flask":                       {"Flask", KindServer},
	"django":                      {"Django", KindServer},
	"fastapi":                     {"FastAPI", KindServer},
	"github.com/gin-gonic/gin":    {"Gin", KindServer},
	"github.com/labstack/echo/v4": {"Echo", KindServer},
	"github.com/gofiber/fiber/v2": {"Fiber", KindServer},
	"github.com/go-chi/chi/v5":    {"chi", KindServer},
	"actix-web":                   {"Actix Web", KindServer},
	"axum":                        {"Axum", KindServer},
	"rocket":                      {"Rocket", KindServer},

	// full-stack meta-frameworks
	"next":             {"Next.js", KindMeta},
	"nuxt":             {"Nuxt", KindMeta},
	"@remix-run/react": {"Remix", KindMeta},
	"@sveltejs/kit":    {"SvelteKit", KindMeta},
	"gatsby":           {"Gatsby", KindMeta},
	"astro":            {"Astro", KindMeta},

	"typescript": {"TypeScript", KindTyping},

	"jest":                   {"Jest", KindTest},
	"mocha":                  {"Mocha", KindTest},
	"vitest":                 {"Vitest", KindTest},
	"jasmine":                {"Jasmine", KindTest},
	"cypress":                {"Cypress", KindTest},
	"@playwright/test":       {"Playwright", KindTest},
	"@testing-library/react": {"Testing Library", KindTest},
	"pytest":                 {"pytest", KindTest},

	"eslint":   {"ESLint", KindLint},
	"prettier": {"Prettier", KindLint},
	"ruff":     {"Ruff", KindLint},
	"flake8":   {"Flake8", KindLint},
	"pylint":   {"Pylint", KindLint},
	"black":    {"Black", KindLint},

	"redux":            {"Redux", KindState},
	"@reduxjs/toolkit": {"Redux Toolkit", KindState},
	"mobx":             {"MobX", KindState},
	"zustand":          {"Zustand", KindState},
	"vuex":             {"Vuex", KindState},
	"pinia":            {"Pinia", KindState},
	"provider":         {"Provider", KindState},

	"mongoose":       {"Mongoose", KindData},
	"sequelize":      {"Sequelize", KindData},
	"@prisma/client": {"Prisma", KindData},
	"prisma":         {"Prisma", KindData},
	"typeorm":        {"TypeORM", KindData},
	"sqlalchemy":     {"SQLAlchemy", KindData},
	"pg":             {"PostgreSQL", KindData},
	"mongodb":        {"MongoDB", KindData},
	"redis":          {"Redis", KindData},
	"gorm.io/gorm":   {"GORM", KindData},
	"diesel":         {"Diesel", KindData},

	"axios":          {"Axios", KindLibrary},
	"socket.io":      {"Socket.IO", KindLibrary},
	"graphql":        {"GraphQL", KindLibrary},
	"@apollo/client": {"Apollo Client", KindLibrary},
	"tailwindcss":    {"Tailwind CSS", KindLibrary},
	"webpack":        {"Webpack", KindLibrary},
	"vite":           {"Vite", KindLibrary},
	"d3":             {"D3.js", KindLibrary},
	"three":          {"Three.js", KindLibrary},
	"serde":          {"Serde", KindLibrary},
	"tokio":          {"Tokio", KindLibrary},
}

// DetectFrameworks maps dependency names to known frameworks, keeping
// first-seen order and dropping duplicate labels.
func DetectFrameworks(deps []string) []Framework {
	var out []Framework
	seen := make(map[string]bool)
	for _, d := range deps {
		fw, ok := frameworkTable[d]
		if !ok || seen[fw.Label] {
			continue
		}
		seen[fw.Label] = true
		out = append(out, fw)
	}
	return out
}
