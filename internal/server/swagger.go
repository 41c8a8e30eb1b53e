package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title OG:BANANA API
// @version 0.1
// @description Generates Open Graph and SEO metadata plus a banner image for a URL.
// @contact.name OG:BANANA Maintainers
// @contact.url https://github.com/2002Bishwajeet/ogbanana
// @BasePath /
// @securityDefinitions.apikey AppwriteUser
// @in header
// @name x-appwrite-user-id
