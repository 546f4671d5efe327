// Package catalog holds the fixed option lists offered by the marketplace forms.
package catalog

import "slices"

// AllCategories is the browse wildcard; it is not a listing category.
const AllCategories = "All Categories"

// Roles.
const (
	RoleStudent = "STUDENT"
	RoleStaff   = "STAFF"
)

// Listing statuses.
const (
	StatusActive = "ACTIVE"
	StatusSold   = "SOLD"
)

// Categories a listing may be filed under.
var Categories = []string{
	"Textbooks & Course Materials",
	"Electronics",
	"Furniture & Dorm Essentials",
	"Clothing & Apparel",
	"Sports Equipment",
	"Tickets & Events",
	"Roommates & Housing",
	"Skills & Services",
	"Tutoring & Academic Help",
	"Creative Services",
	"Tech Support",
	"Delivery & Errands",
	"Other",
}

// Skills a profile may select.
var Skills = []string{
	"Programming",
	"Web Development",
	"Mobile Development",
	"Graphic Design",
	"UI/UX Design",
	"Data Analysis",
	"Project Management",
	"Digital Marketing",
	"Content Writing",
	"Tutoring",
	"Mathematics",
	"Research",
	"Technical Writing",
	"Video Editing",
	"Photography",
	"3D Modeling",
	"Animation",
	"Music Production",
	"Language Translation",
	"Public Speaking",
	"Event Planning",
	"Social Media Management",
	"SEO/SEM",
	"E-commerce",
	"Customer Service",
	"Sales",
	"Accounting",
	"Business Analysis",
	"Consulting",
	"Training & Development",
	"Quality Assurance",
	"Technical Support",
	"Network Administration",
	"Database Management",
	"Cybersecurity",
	"Machine Learning",
	"Artificial Intelligence",
	"Blockchain",
	"Game Development",
	"Virtual Reality",
	"Cloud Computing",
}

// Departments a teaching profile belongs to.
var Departments = []string{
	"Department of Computer Science",
	"Department of Information Technology",
	"Department of Software Engineering",
	"Department of Data Science",
	"Department of Cybersecurity",
	"Department of Computer Engineering",
	"Department of Information Systems",
	"Department of Digital Arts",
	"Department of Game Development",
	"Department of Web Technologies",
	"Department of Mathematics",
	"Department of Physics",
	"Department of Chemistry",
	"Department of Biology",
	"Department of English",
	"Department of Business Administration",
	"Department of Economics",
	"Department of Psychology",
	"Department of Sociology",
	"Department of Political Science",
}

// IsCategory reports whether c is a listing category.
func IsCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// IsWildcard reports whether c selects every category in browse filters.
func IsWildcard(c string) bool {
	return c == "" || c == AllCategories
}

// IsRole reports whether r is a known profile role.
func IsRole(r string) bool {
	return r == RoleStudent || r == RoleStaff
}
