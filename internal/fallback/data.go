package fallback

type staticSpot struct {
	id       int
	name     string
	location string
	lat, lng float64
	verified bool
	meals    int64
	time     string
	contact  string
}

type staticPin struct {
	id          int
	lat, lng    float64
	kind        string
	label       string
	description string
}

type staticHelp struct {
	id       int
	name     string
	location string
	lat, lng float64
	need     string
	people   int64
	urgent   bool
}

type staticVolunteer struct {
	id    int
	name  string
	area  string
	meals int64
	rank  int
}

var spots = []staticSpot{
	{1, "গুলশান ইফতার পয়েন্ট", "গুলশান-১, ঢাকা", 23.7925, 90.4078, true, 500, "৬:১৫ PM", "01711-XXXXXX"},
	{2, "মতিঝিল ইফতার মাহফিল", "মতিঝিল, ঢাকা", 23.7283, 90.4193, true, 1200, "৬:১৫ PM", "01812-XXXXXX"},
	{3, "চট্টগ্রাম কেন্দ্রীয় ইফতার", "আগ্রাবাদ, চট্টগ্রাম", 22.3264, 91.8095, true, 800, "৬:১০ PM", "01911-XXXXXX"},
	{4, "খুলনা জামে মসজিদ ইফতার", "খুলনা সদর", 22.8456, 89.5403, true, 350, "৬:১৮ PM", "01611-XXXXXX"},
	{5, "রাজশাহী বড়কুঠি ইফতার", "রাজশাহী", 24.3745, 88.6042, false, 200, "৬:২০ PM", "01511-XXXXXX"},
	{6, "সিলেট ওসমানী উদ্যান ইফতার", "সিলেট", 24.8949, 91.8687, true, 600, "৬:০৮ PM", "01311-XXXXXX"},
	{7, "বরিশাল নদী ঘাট ইফতার", "বরিশাল", 22.7010, 90.3535, true, 450, "৬:১৫ PM", "01411-XXXXXX"},
	{8, "ময়মনসিংহ কেন্দ্রীয় ইফতার", "ময়মনসিংহ", 24.7471, 90.4203, false, 150, "৬:১৭ PM", "01811-XXXXXX"},
	{9, "রংপুর তাজহাট ইফতার", "রংপুর", 25.7439, 89.2752, true, 300, "৬:২২ PM", "01711-YYYYYY"},
	{10, "কুমিল্লা টমটম ইফতার", "কুমিল্লা", 23.4607, 91.1809, true, 250, "৬:১২ PM", "01911-YYYYYY"},
	{11, "ধানমন্ডি লেক পাড় ইফতার", "ধানমন্ডি, ঢাকা", 23.7461, 90.3742, true, 700, "৬:১৫ PM", "01612-XXXXXX"},
	{12, "মিরপুর-১০ ইফতার মাহফিল", "মিরপুর, ঢাকা", 23.8069, 90.3687, true, 900, "৬:১৫ PM", "01512-XXXXXX"},
}

var trafficPins = []staticPin{
	{1, 23.7509, 90.3937, "jam", "ফার্মগেট", "তীব্র যানজট - ইফতার আগে ২ ঘণ্টা"},
	{2, 23.7806, 90.4075, "jam", "মহাখালী", "যানজট - বিকল্প পথ ব্যবহার করুন"},
	{3, 23.7333, 90.3974, "jam", "মতিঝিল", "ইফতার টাইমে চরম যানজট"},
	{4, 23.7727, 90.3598, "shortcut", "মিরপুর রোড শর্টকাট", "কম যানবাহন - দ্রুত পৌঁছান"},
	{5, 23.7617, 90.4255, "shortcut", "রামপুরা বাইপাস", "বিকল্প রুট - সময় বাঁচান ১৫ মিনিট"},
	{6, 23.8103, 90.4125, "shortcut", "উত্তরা লিংক রোড", "ফাঁকা রাস্তা - ইফতারের আগে ভালো"},
}

var helpRequests = []staticHelp{
	{1, "রিকশাচালক গ্রুপ", "পুরান ঢাকা", 23.7104, 90.4074, "৫০ জন রিকশাচালকের জন্য ইফতার দরকার", 50, true},
	{2, "বস্তিবাসী পরিবার", "কামরাঙ্গীরচর", 23.7152, 90.3842, "৩০টি পরিবারের জন্য ইফতার প্রয়োজন", 120, true},
	{3, "পথশিশু গ্রুপ", "সদরঘাট", 23.7089, 90.4069, "২৫ জন পথশিশুর জন্য ইফতার", 25, false},
	{4, "দিনমজুর পরিবার", "গাজীপুর", 24.0023, 90.4208, "৪০ জন দিনমজুরের ইফতার", 40, true},
	{5, "বিধবা মহিলা গ্রুপ", "নারায়ণগঞ্জ", 23.6238, 90.5000, "২০ জন বিধবা মহিলার পরিবারের জন্য ইফতার", 80, false},
	{6, "প্রতিবন্ধী সেবা কেন্দ্র", "মোহাম্মদপুর", 23.7662, 90.3588, "১৫ জন প্রতিবন্ধী ব্যক্তির জন্য ইফতার", 15, true},
}

var topVolunteers = []staticVolunteer{
	{1, "আব্দুল্লাহ আল মামুন", "গুলশান", 4520, 1},
	{2, "ফাতেমা বেগম", "ধানমন্ডি", 3890, 2},
	{3, "মোহাম্মদ রাকিব", "চট্টগ্রাম", 3450, 3},
	{4, "নুসরাত জাহান", "মিরপুর", 2980, 4},
	{5, "তানভীর আহমেদ", "সিলেট", 2650, 5},
	{6, "সামিয়া আক্তার", "রাজশাহী", 2340, 6},
	{7, "ইমরান হোসেন", "খুলনা", 2100, 7},
	{8, "রুমানা পারভীন", "বরিশাল", 1890, 8},
	{9, "কামরুল ইসলাম", "রংপুর", 1650, 9},
	{10, "সাবরিনা মোস্তাফিজ", "কুমিল্লা", 1420, 10},
}
